/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/util"
)

// MetricsResult holds the headline numbers of the dashboard.
type MetricsResult struct {
	TotalKitchens int `json:"total_kitchens"`
	Types         int `json:"types"`
	Barrios       int `json:"barrios"`
	Comunas       int `json:"comunas"`
}

// Metrics counts kitchens and the distinct types, barrios and comunas. The
// columns are found by name fragments, and a missing column counts zero. An
// empty dataset gives zero metrics rather than an error.
func Metrics(ds *dataset.Dataset) *MetricsResult {
	return &MetricsResult{
		TotalKitchens: ds.Len(),
		Types:         distinctBy(ds, dataset.ContainsAll("tipo", "comedor")),
		Barrios:       distinctBy(ds, dataset.ContainsAll("barrio")),
		Comunas:       distinctBy(ds, dataset.ContainsAll("comuna")),
	}
}

func distinctBy(ds *dataset.Dataset, match func(string) bool) int {
	col, ok := ds.FindColumnFunc(match)
	if !ok {
		return 0
	}
	set := util.NewSet[string]()
	for _, s := range ds.Strings(col) {
		set.Add(s)
	}
	return set.Len()
}
