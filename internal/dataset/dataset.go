/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

// Well-known survey columns. Some headers carry a trailing space in the
// source sheet and are kept verbatim.
const (
	ColTipoComedor   = "TIPO DE COMEDOR"
	ColNombreComedor = "NOMBRE DEL COMEDOR"
	ColBarrio        = "BARRIO"
	ColComuna        = "COMUNA"
	ColNodo          = "NODO "
	ColNicho         = "NICHO "
	ColAnioVinculo   = "AÑO DE VINCULACIÓN AL PROGRAMA"
	ColNecesidades   = "NECESIDADES"
	ColProblematicas = "PROBLEMÁTICAS"
)

// NumericColumns are coerced to numbers on load.
var NumericColumns = []string{ColComuna, ColNodo, ColNicho, ColAnioVinculo}

// CriticalColumns must be present and mostly filled in for the dashboard to
// be meaningful.
var CriticalColumns = []string{ColTipoComedor, ColNombreComedor, ColBarrio, ColComuna}

// Dataset is the cleaned worksheet: unique headers and rows of values.
type Dataset struct {
	Columns []string
	Rows    [][]Value

	index map[string]int
}

// New builds a dataset from already cleaned columns and rows.
func New(columns []string, rows [][]Value) *Dataset {
	ds := &Dataset{
		Columns: columns,
		Rows:    rows,
	}
	ds.buildIndex()
	return ds
}

// FromRows builds a dataset from raw sheet values. The first row holds the
// headers; duplicated headers get numeric suffixes. Cells are trimmed, the
// null spellings become Null, rows without any value are dropped and the
// numeric columns are coerced.
func FromRows(raw [][]string) (*Dataset, error) {
	if len(raw) < 2 {
		return nil, domain.ErrNoData
	}

	headers := make([]string, len(raw[0]))
	copy(headers, raw[0])
	// widen the header row when data rows are longer than it
	for _, r := range raw[1:] {
		for len(headers) < len(r) {
			headers = append(headers, fmt.Sprintf("COLUMNA %d", len(headers)+1))
		}
	}
	headers = MakeHeadersUnique(headers)

	rows := make([][]Value, 0, len(raw)-1)
	for _, r := range raw[1:] {
		row := make([]Value, len(headers))
		empty := true
		for i := range headers {
			if i < len(r) {
				row[i] = ParseCell(r[i])
			}
			if !row[i].IsNull() {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoData
	}

	ds := New(headers, rows)
	ds.coerceNumeric(NumericColumns)
	return ds, nil
}

// MakeHeadersUnique appends "_<n>" to the repetitions of a header, skipping
// any suffixed name that is already taken.
func MakeHeadersUnique(headers []string) []string {
	taken := make(map[string]bool, len(headers))
	for _, h := range headers {
		taken[h] = true
	}
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		n, dup := seen[h]
		if !dup {
			seen[h] = 0
			out[i] = h
			continue
		}
		name := h
		for taken[name] {
			n++
			name = h + "_" + strconv.Itoa(n)
		}
		seen[h] = n
		taken[name] = true
		out[i] = name
	}
	return out
}

func (d *Dataset) buildIndex() {
	d.index = make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		if _, dup := d.index[c]; !dup {
			d.index[c] = i
		}
	}
}

func (d *Dataset) coerceNumeric(columns []string) {
	for _, col := range columns {
		idx, ok := d.index[col]
		if !ok {
			continue
		}
		for _, row := range d.Rows {
			v := row[idx]
			if v.Kind != KindText {
				continue
			}
			f, ok := v.AsNumber()
			if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
				row[idx] = Unreadable(v.Text)
				continue
			}
			row[idx] = Number(f)
		}
	}
}

// ConversionFailures counts, per numeric column, the cells of the current
// rows that could not be read as numbers and were nulled.
func (d *Dataset) ConversionFailures() map[string]int {
	out := map[string]int{}
	for _, col := range NumericColumns {
		idx := d.Index(col)
		if idx < 0 {
			continue
		}
		for _, row := range d.Rows {
			if row[idx].Kind == KindUnreadable {
				out[col]++
			}
		}
	}
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Index returns the position of column, or -1.
func (d *Dataset) Index(column string) int {
	if d == nil {
		return -1
	}
	if d.index == nil {
		d.buildIndex()
	}
	idx, ok := d.index[column]
	if !ok {
		return -1
	}
	return idx
}

func (d *Dataset) HasColumn(column string) bool {
	return d.Index(column) >= 0
}

// Column returns a copy of the values of column.
func (d *Dataset) Column(column string) ([]Value, bool) {
	idx := d.Index(column)
	if idx < 0 {
		return nil, false
	}
	out := make([]Value, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Strings returns the canonical text of the non-null values of column.
func (d *Dataset) Strings(column string) []string {
	values, ok := d.Column(column)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		out = append(out, v.String())
	}
	return out
}

// Select projects the dataset onto columns, in the given order.
func (d *Dataset) Select(columns []string) (*Dataset, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = d.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("select %q: %w", c, domain.ErrNotFound)
		}
	}
	rows := make([][]Value, len(d.Rows))
	for r, row := range d.Rows {
		out := make([]Value, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return New(append([]string(nil), columns...), rows), nil
}

// where keeps the rows for which keep returns true.
func (d *Dataset) where(keep func(row []Value) bool) *Dataset {
	rows := make([][]Value, 0, len(d.Rows))
	for _, row := range d.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return New(d.Columns, rows)
}

// String renders a short description, handy in logs.
func (d *Dataset) String() string {
	if d == nil {
		return "dataset(nil)"
	}
	return fmt.Sprintf("dataset(%d rows, %d columns: %s)", len(d.Rows), len(d.Columns), strings.Join(d.Columns, "|"))
}
