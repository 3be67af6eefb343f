/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the filtered records",
	Long: `Write the filtered records to a CSV or XLSX file.

The file is named after export.prefix and the current time unless --out is
given.

Examples:
  dashboard export --comuna 7
  dashboard export --format xlsx --col BARRIO --col "TIPO DE COMEDOR"`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "csv", "csv or xlsx")
	exportCmd.Flags().StringP("out", "o", "", "output file")
	exportCmd.Flags().StringArray("col", nil, "column to include, repeatable (default all)")
	addFilterFlags(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("export format %q: %w", format, domain.ErrUnsupportedFormat)
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

	ds, err := filteredData(cmd, svc)
	if err != nil {
		return err
	}
	if ds.Empty() {
		return fmt.Errorf("no records match the filters: %w", domain.ErrNoData)
	}

	cols, _ := cmd.Flags().GetStringArray("col")
	var buf bytes.Buffer
	if format == "csv" {
		err = export.WriteCSV(&buf, ds, cols)
	} else {
		err = export.WriteXLSX(&buf, ds, cols, "Comedores")
	}
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = export.FilenameWithLayout(cfg.Export.Prefix, format, cfg.Export.DateFormat, time.Now())
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d registros exportados a %s\n", ds.Len(), path)
	return nil
}
