/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"fmt"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/util"
)

const (
	RecommendationHealthy = "Los datos están en buen estado general"
	RecommendationIssues  = "Revisar y corregir los problemas críticos identificados"
	RecommendationClean   = "Considerar limpiar los datos según las advertencias"
)

// QualityReport lists the problems found in the data.
type QualityReport struct {
	TotalRecords    int      `json:"total_records"`
	Issues          []string `json:"issues"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// Healthy reports whether neither issues nor warnings were found.
func (q *QualityReport) Healthy() bool {
	return len(q.Issues) == 0 && len(q.Warnings) == 0
}

// Quality validates the critical columns, duplicated kitchen names and the
// numeric conversions done at load time.
func Quality(ds *dataset.Dataset) (*QualityReport, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	q := &QualityReport{
		TotalRecords:    ds.Len(),
		Issues:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	for _, col := range dataset.CriticalColumns {
		values, ok := ds.Column(col)
		if !ok {
			q.Issues = append(q.Issues, fmt.Sprintf("Columna crítica '%s' no encontrada", col))
			continue
		}
		missing := 0
		for _, v := range values {
			if v.IsNull() {
				missing++
			}
		}
		p := percent(missing, len(values))
		switch {
		case p > 50:
			q.Issues = append(q.Issues, fmt.Sprintf("Columna crítica '%s' tiene %.1f%% de datos faltantes", col, p))
		case p > 20:
			q.Warnings = append(q.Warnings, fmt.Sprintf("Columna '%s' tiene %.1f%% de datos faltantes", col, p))
		}
	}

	if names := ds.Strings(dataset.ColNombreComedor); len(names) > 0 {
		seen := util.NewSet[string]()
		dup := 0
		for _, n := range names {
			if !seen.Add(n) {
				dup++
			}
		}
		if dup > 0 {
			q.Warnings = append(q.Warnings, fmt.Sprintf("Se encontraron %d nombres de comedores duplicados", dup))
		}
	}

	failures := ds.ConversionFailures()
	for _, col := range dataset.NumericColumns {
		if n := failures[col]; n > 0 {
			q.Warnings = append(q.Warnings, fmt.Sprintf("Columna '%s': %d valores no pueden convertirse a número", col, n))
		}
	}

	if q.Healthy() {
		q.Recommendations = append(q.Recommendations, RecommendationHealthy)
		return q, nil
	}
	if len(q.Issues) > 0 {
		q.Recommendations = append(q.Recommendations, RecommendationIssues)
	}
	if len(q.Warnings) > 0 {
		q.Recommendations = append(q.Recommendations, RecommendationClean)
	}
	return q, nil
}
