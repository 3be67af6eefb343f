/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
)

var dashboardsCmd = &cobra.Command{
	Use:   "dashboards",
	Short: "Manage the visualization hub",
	Long:  "Commands for listing, adding, hiding and removing the external dashboards of the hub.",
}

var dashboardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active dashboards",
	RunE:  runDashboardsList,
}

var dashboardsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a dashboard to the hub",
	Long: `Add a dashboard to the hub.

Examples:
  dashboard dashboards add --title "Mapa de nodos" \
    --description "Nodos por comuna" --url https://example.org/nodos --tags "Nodos, Mapa"`,
	RunE: runDashboardsAdd,
}

var dashboardsHideCmd = &cobra.Command{
	Use:   "hide ID",
	Short: "Hide a dashboard from the hub",
	Args:  cobra.ExactArgs(1),
	RunE:  runDashboardsHide,
}

var dashboardsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a dashboard, hidden or not",
	Args:  cobra.ExactArgs(1),
	RunE:  runDashboardsShow,
}

var dashboardsRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Delete a dashboard from the hub",
	Args:  cobra.ExactArgs(1),
	RunE:  runDashboardsRemove,
}

func init() {
	rootCmd.AddCommand(dashboardsCmd)
	dashboardsCmd.AddCommand(dashboardsListCmd, dashboardsAddCmd, dashboardsHideCmd, dashboardsShowCmd, dashboardsRemoveCmd)

	dashboardsListCmd.Flags().StringArray("tag", nil, "keep dashboards with this tag, repeatable")
	dashboardsListCmd.Flags().String("order", "recent", "recent, oldest or title")

	dashboardsAddCmd.Flags().StringP("title", "t", "", "dashboard title")
	dashboardsAddCmd.Flags().StringP("description", "d", "", "dashboard description")
	dashboardsAddCmd.Flags().StringP("url", "u", "", "dashboard URL")
	dashboardsAddCmd.Flags().String("tags", "", "comma separated tags")
}

func runDashboardsList(cmd *cobra.Command, args []string) error {
	orderFlag, _ := cmd.Flags().GetString("order")
	order, err := dashboard.ParseSortOrder(orderFlag)
	if err != nil {
		return err
	}
	tags, _ := cmd.Flags().GetStringArray("tag")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	links, err := svc.ListDashboards(cmd.Context(), dashboard.ListOptions{Tags: tags, Order: order})
	if err != nil {
		return err
	}
	if len(links) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No hay dashboards que coincidan con los filtros.")
		return nil
	}
	for _, l := range links {
		fmt.Fprintln(cmd.OutOrStdout(), renderLink(l))
	}
	return nil
}

func renderLink(l *model.DashboardLink) string {
	lines := []string{
		field("ID", strconv.FormatInt(l.ID, 10)),
		field("URL", l.URL),
		field("Etiquetas", strings.Join(l.Tags, ", ")),
		field("Creado", l.CreatedAt.Format("2006-01-02")),
	}
	if !l.Active {
		lines = append(lines, field("Estado", warnStyle.Render("oculto")))
	}
	return strings.Join([]string{
		titleStyle.MarginBottom(0).Render(l.Title),
		l.Description,
		boxStyle.Render(strings.Join(lines, "\n")),
	}, "\n")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid dashboard id %q", arg)
	}
	return id, nil
}

func runDashboardsAdd(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	rawURL, _ := cmd.Flags().GetString("url")
	tags, _ := cmd.Flags().GetString("tags")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	l, err := svc.AddDashboard(cmd.Context(), title, description, rawURL, dashboard.SplitTags(tags))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Dashboard %q agregado (ID %d)\n", l.Title, l.ID)
	return nil
}

func runDashboardsHide(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.SetDashboardActive(cmd.Context(), id, false); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dashboard %d oculto\n", id)
	return nil
}

func runDashboardsShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	l, err := svc.Dashboard(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderLink(l))
	return nil
}

func runDashboardsRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.RemoveDashboard(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dashboard %d eliminado\n", id)
	return nil
}
