/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kentakayama/comedores-dashboard/internal/config"
	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the configuration and the connection to the source",
	Long: `Load the survey once and print the connection status together with
the configuration problems found, if any.

Exits non-zero when the data could not be loaded.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	_, loadErr := svc.Data(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), renderStatus(cfg, svc.Status()))
	if loadErr != nil {
		return fmt.Errorf("no se pudieron cargar los datos: %w", loadErr)
	}
	return nil
}

func renderStatus(cfg *config.Config, st dashboard.Status) string {
	lines := []string{
		field("Fuente", st.Source),
		field("Cache TTL", st.CacheTTL.String()),
		field("Base de estado", cfg.Database.Path),
	}

	switch {
	case !st.HasData:
		lines = append(lines, field("Conexión", errStyle.Render("❌ sin datos")))
	case st.Stale:
		lines = append(lines, field("Conexión", warnStyle.Render("⚠️ usando copia en caché")))
	default:
		lines = append(lines, field("Conexión", okStyle.Render("✅ conectado")))
	}
	if st.HasData {
		lines = append(lines,
			field("Registros", fmt.Sprint(st.Records)),
			field("Columnas", fmt.Sprint(st.Columns)),
		)
	}
	if st.LoadedAt != nil {
		lines = append(lines, field("Cargado", st.LoadedAt.Format(time.DateTime)))
	}
	if st.LastError != "" {
		lines = append(lines, field("Último error", errStyle.Render(st.LastError)))
	}

	out := []string{titleStyle.Render("🍽️ " + cfg.App.Title), boxStyle.Render(strings.Join(lines, "\n"))}
	if len(st.ConfigIssues) > 0 {
		issues := make([]string, len(st.ConfigIssues))
		for i, issue := range st.ConfigIssues {
			issues[i] = warnStyle.Render("• " + issue)
		}
		out = append(out, "", "Problemas de configuración:", strings.Join(issues, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}
