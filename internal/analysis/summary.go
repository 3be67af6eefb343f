/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/util"
)

// SummaryResult holds dataset wide statistics.
type SummaryResult struct {
	TotalRecords   int                `json:"total_records"`
	TotalColumns   int                `json:"total_columns"`
	MissingValues  map[string]int     `json:"missing_values"`
	UniqueValues   map[string]int     `json:"unique_values"`
	Completeness   map[string]float64 `json:"completeness"`
	NumericColumns []string           `json:"numeric_columns"`
	TextColumns    []string           `json:"text_columns"`
}

// Summary computes per column statistics. A column is numeric when all of
// its non-null values are numbers and there is at least one.
func Summary(ds *dataset.Dataset) (*SummaryResult, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	res := &SummaryResult{
		TotalRecords:   ds.Len(),
		TotalColumns:   len(ds.Columns),
		MissingValues:  make(map[string]int, len(ds.Columns)),
		UniqueValues:   make(map[string]int, len(ds.Columns)),
		Completeness:   make(map[string]float64, len(ds.Columns)),
		NumericColumns: []string{},
		TextColumns:    []string{},
	}
	for _, col := range ds.Columns {
		values, _ := ds.Column(col)
		missing, numbers := 0, 0
		uniq := util.NewSet[string]()
		for _, v := range values {
			switch {
			case v.IsNull():
				missing++
			case v.IsNumber():
				numbers++
				uniq.Add(v.String())
			default:
				uniq.Add(v.String())
			}
		}
		res.MissingValues[col] = missing
		res.UniqueValues[col] = uniq.Len()
		res.Completeness[col] = percent(len(values)-missing, len(values))
		if numbers > 0 && numbers == len(values)-missing {
			res.NumericColumns = append(res.NumericColumns, col)
		} else {
			res.TextColumns = append(res.TextColumns, col)
		}
	}
	return res, nil
}
