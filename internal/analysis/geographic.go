/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

// GeoBreakdown counts kitchens per value of one territorial column.
type GeoBreakdown struct {
	Column   string `json:"column"`
	Counts   Counts `json:"counts"`
	Distinct int    `json:"distinct"`
	Top      string `json:"top,omitempty"`
	TopCount int    `json:"top_count"`
}

// GeographicResult holds one breakdown per territorial level; levels whose
// column is missing are nil.
type GeographicResult struct {
	Comunas *GeoBreakdown `json:"comunas,omitempty"`
	Barrios *GeoBreakdown `json:"barrios,omitempty"`
	Nodos   *GeoBreakdown `json:"nodos,omitempty"`
	Nichos  *GeoBreakdown `json:"nichos,omitempty"`
}

// GeoLevel is a named territorial breakdown.
type GeoLevel struct {
	Name string
	*GeoBreakdown
}

// Levels returns the breakdowns that were computed, coarsest first.
func (g *GeographicResult) Levels() []GeoLevel {
	if g == nil {
		return nil
	}
	var out []GeoLevel
	for _, l := range []GeoLevel{
		{"Comunas", g.Comunas},
		{"Barrios", g.Barrios},
		{"Nodos", g.Nodos},
		{"Nichos", g.Nichos},
	} {
		if l.GeoBreakdown != nil {
			out = append(out, l)
		}
	}
	return out
}

// Geographic analyses the distribution by comuna, barrio, nodo and nicho.
func Geographic(ds *dataset.Dataset) (*GeographicResult, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	return &GeographicResult{
		Comunas: breakdown(ds, dataset.ColComuna),
		Barrios: breakdown(ds, dataset.ColBarrio),
		Nodos:   breakdown(ds, dataset.ColNodo),
		Nichos:  breakdown(ds, dataset.ColNicho),
	}, nil
}

func breakdown(ds *dataset.Dataset, col string) *GeoBreakdown {
	if !ds.HasColumn(col) {
		return nil
	}
	counts := ValueCounts(ds.Strings(col))
	b := &GeoBreakdown{Column: col, Counts: counts, Distinct: len(counts)}
	if len(counts) > 0 {
		b.Top = counts[0].Category
		b.TopCount = counts[0].Count
	}
	return b
}
