/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dataset

import (
	"sort"

	"github.com/kentakayama/comedores-dashboard/internal/util"
)

// SidebarFilter describes one selectable filter of the dashboard.
type SidebarFilter struct {
	Key       string `json:"key"`
	Column    string `json:"column"`
	Label     string `json:"label"`
	AllOption string `json:"all_option"`
}

// SidebarFilters are applied in this order; the options of each filter are
// narrowed by the selections made before it.
var SidebarFilters = []SidebarFilter{
	{Key: "comedor", Column: ColNombreComedor, Label: "📍 Nombre del Comedor", AllOption: "Todos"},
	{Key: "barrio", Column: ColBarrio, Label: "🏘️ Barrio", AllOption: "Todos"},
	{Key: "comuna", Column: ColComuna, Label: "🏛️ Comuna", AllOption: "Todas"},
	{Key: "nodo", Column: ColNodo, Label: "🔗 Nodo", AllOption: "Todos"},
	{Key: "nicho", Column: ColNicho, Label: "🎯 Nicho", AllOption: "Todos"},
}

// Filters maps a column to the selected value.
type Filters map[string]string

// IsAll reports whether v selects every row.
func IsAll(v string) bool {
	return v == "" || v == "Todos" || v == "Todas"
}

// Filter keeps the rows matching every active filter. Filters on unknown
// columns are ignored.
func (d *Dataset) Filter(filters Filters) *Dataset {
	type cond struct {
		idx   int
		value string
	}
	var conds []cond
	for col, v := range filters {
		if IsAll(v) {
			continue
		}
		idx := d.Index(col)
		if idx < 0 {
			continue
		}
		conds = append(conds, cond{idx: idx, value: v})
	}
	if len(conds) == 0 {
		return d
	}
	return d.where(func(row []Value) bool {
		for _, c := range conds {
			v := row[c.idx]
			if v.IsNull() || v.String() != c.value {
				return false
			}
		}
		return true
	})
}

// Options returns the distinct non-null values of column, sorted, with
// allOption first when it is not empty. Numeric columns sort numerically.
func (d *Dataset) Options(column, allOption string) []string {
	values, ok := d.Column(column)
	if !ok {
		return nil
	}
	uniq := util.NewSet[string]()
	numeric := true
	nums := map[string]float64{}
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		s := v.String()
		uniq.Add(s)
		if v.IsNumber() {
			nums[s] = v.Num
		} else {
			numeric = false
		}
	}
	opts := uniq.Values()
	if numeric {
		sort.SliceStable(opts, func(i, j int) bool { return nums[opts[i]] < nums[opts[j]] })
	} else {
		sort.Strings(opts)
	}
	if allOption != "" {
		opts = append([]string{allOption}, opts...)
	}
	return opts
}

// FilterOption is the state of one sidebar filter.
type FilterOption struct {
	SidebarFilter
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// FilterOptions computes the sidebar state. The options of each filter are
// taken from the rows left by the previous selections, and the returned
// dataset has every selection applied.
func (d *Dataset) FilterOptions(selected Filters) ([]FilterOption, *Dataset) {
	current := d
	var out []FilterOption
	for _, sf := range SidebarFilters {
		if !d.HasColumn(sf.Column) {
			continue
		}
		opt := FilterOption{
			SidebarFilter: sf,
			Options:       current.Options(sf.Column, sf.AllOption),
			Selected:      sf.AllOption,
		}
		if v, ok := selected[sf.Column]; ok && !IsAll(v) {
			opt.Selected = v
			current = current.Filter(Filters{sf.Column: v})
		}
		out = append(out, opt)
	}
	return out, current
}

// FiltersFromKeys maps sidebar keys (comedor, barrio, ...) to columns.
func FiltersFromKeys(get func(key string) string) Filters {
	f := Filters{}
	for _, sf := range SidebarFilters {
		if v := get(sf.Key); !IsAll(v) {
			f[sf.Column] = v
		}
	}
	return f
}
