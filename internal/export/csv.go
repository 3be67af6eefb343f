/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
)

// WriteCSV writes a header row followed by one line per row. Null cells are
// left empty.
func WriteCSV(w io.Writer, ds *dataset.Dataset, columns []string) error {
	sel, err := project(ds, columns)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(sel.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(sel.Columns))
	for _, row := range sel.Rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
