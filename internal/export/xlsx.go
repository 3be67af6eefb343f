/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kentakayama/comedores-dashboard/internal/analysis"
	"github.com/kentakayama/comedores-dashboard/internal/dataset"
)

const (
	DefaultSheetName = "Comedores"
	maxSheetName     = 31
)

// WriteXLSX writes the rows to a single sheet workbook. The header row is
// bold, filterable and frozen; numbers are stored as numbers.
func WriteXLSX(w io.Writer, ds *dataset.Dataset, columns []string, sheetName string) error {
	sel, err := project(ds, columns)
	if err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(sheetName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(sel.Columns))
	for i, c := range sel.Columns {
		header[i] = c
	}
	if err := writeTable(f, sheet, header, len(sel.Rows), func(r int) []interface{} {
		out := make([]interface{}, len(sel.Columns))
		for i, v := range sel.Rows[r] {
			switch v.Kind {
			case dataset.KindNumber:
				out[i] = v.Num
			case dataset.KindText:
				out[i] = v.Text
			default:
				out[i] = nil
			}
		}
		return out
	}); err != nil {
		return err
	}
	return f.Write(w)
}

// Table is a named frequency table for WriteReportXLSX.
type Table struct {
	Name string
	Rows []analysis.FrequencyRow
}

// WriteReportXLSX writes one sheet per frequency table.
func WriteReportXLSX(w io.Writer, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"Categoría", "Frecuencia", "Porcentaje"}
	for i, t := range tables {
		sheet := SheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		rows := t.Rows
		if err := writeTable(f, sheet, header, len(rows), func(r int) []interface{} {
			p, _ := rows[r].Percentage.Float64()
			return []interface{}{rows[r].Category, rows[r].Count, p}
		}); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeTable(f *excelize.File, sheet string, header []interface{}, n int, row func(int) []interface{}) error {
	if len(header) == 0 {
		return fmt.Errorf("sheet %q has no columns", sheet)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r := 0; r < n; r++ {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row(r)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, bold); err != nil {
		return err
	}
	lastCell, err := excelize.CoordinatesToCellName(len(header), n+1)
	if err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// SheetName makes name usable as a worksheet name.
func SheetName(name string) string {
	name = strings.TrimSpace(sheetNameReplacer.Replace(name))
	if name == "" {
		return DefaultSheetName
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
