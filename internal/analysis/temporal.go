/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"fmt"
	"sort"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

const (
	TrendIncreasing = "creciente"
	TrendDecreasing = "decreciente"
)

// YearCount is the number of kitchens linked in one year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// TemporalResult describes how kitchens joined the program over time.
type TemporalResult struct {
	Years        []YearCount `json:"years"`
	StartYear    int         `json:"start_year"`
	EndYear      int         `json:"end_year"`
	ActivePeriod int         `json:"active_period"`
	BusiestYear  int         `json:"busiest_year"`
	BusiestCount int         `json:"busiest_count"`
	YearlyMean   float64     `json:"yearly_mean"`
	Trend        string      `json:"trend"`
}

// Temporal analyses the year of linkage to the program. Years are truncated
// to integers.
func Temporal(ds *dataset.Dataset) (*TemporalResult, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	values, ok := ds.Column(dataset.ColAnioVinculo)
	if !ok {
		return nil, &ColumnNotFoundError{Column: dataset.ColAnioVinculo}
	}

	byYear := map[int]int{}
	for _, v := range values {
		f, ok := v.AsNumber()
		if !ok {
			continue
		}
		byYear[int(f)]++
	}
	if len(byYear) == 0 {
		return nil, fmt.Errorf("column %q: %w", dataset.ColAnioVinculo, domain.ErrNoData)
	}

	res := &TemporalResult{Years: make([]YearCount, 0, len(byYear))}
	total := 0
	for y, n := range byYear {
		res.Years = append(res.Years, YearCount{Year: y, Count: n})
		total += n
	}
	sort.Slice(res.Years, func(i, j int) bool { return res.Years[i].Year < res.Years[j].Year })

	first, last := res.Years[0], res.Years[len(res.Years)-1]
	res.StartYear = first.Year
	res.EndYear = last.Year
	res.ActivePeriod = last.Year - first.Year + 1
	for _, yc := range res.Years {
		// strictly greater keeps the earliest year on ties
		if yc.Count > res.BusiestCount {
			res.BusiestYear, res.BusiestCount = yc.Year, yc.Count
		}
	}
	res.YearlyMean = float64(total) / float64(len(res.Years))
	res.Trend = TrendDecreasing
	if last.Count > first.Count {
		res.Trend = TrendIncreasing
	}
	return res, nil
}
