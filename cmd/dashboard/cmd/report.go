/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kentakayama/comedores-dashboard/internal/analysis"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the executive report",
	Long: `Print the executive report of the survey.

The report covers the summary, data quality, the kitchen types, geography,
the evolution over time and every multi-option question found in the sheet.

Examples:
  dashboard report
  dashboard report --format json --barrio Robledo
  dashboard report --out informe.md`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("format", "f", analysis.FormatMarkdown, "markdown or json")
	reportCmd.Flags().StringP("out", "o", "", "write to this file instead of stdout")
	addFilterFlags(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ds, err := filteredData(cmd, svc)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out, err := analysis.Report(ds, format)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Reporte guardado en %s\n", path)
	return nil
}
