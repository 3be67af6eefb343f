/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

const (
	DefaultMaxCategories = 15
	othersLabel          = "Otros"
)

// FrequencyRow is one line of a frequency table. Percentage is rounded to
// two decimals.
type FrequencyRow struct {
	Category   string          `json:"category"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// DistributionResult is the frequency of the answers to one question.
type DistributionResult struct {
	Column string         `json:"column"`
	Total  int            `json:"total"`
	Counts Counts         `json:"counts"`
	Table  []FrequencyRow `json:"table"`
}

// Distribution counts the cleaned answers of column. Columns about themes or
// activities hold several answers per cell, which are split on commas,
// semicolons and newlines. When there are more than maxCategories categories
// the least frequent are grouped under "Otros".
func Distribution(ds *dataset.Dataset, column string, maxCategories int) (*DistributionResult, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	values, ok := ds.Column(column)
	if !ok {
		return nil, &ColumnNotFoundError{Column: column}
	}
	if maxCategories < 2 {
		maxCategories = DefaultMaxCategories
	}

	upper := strings.ToUpper(column)
	multi := strings.Contains(upper, "TEMAS") || strings.Contains(upper, "ACTIVIDADES")

	items := make([]string, 0, len(values))
	for _, v := range values {
		c := cleanCategory(v)
		if !multi || c == noAnswer {
			items = append(items, c)
			continue
		}
		items = append(items, splitAnswers(c)...)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("column %q: %w", column, domain.ErrNoData)
	}

	counts := ValueCounts(items)
	if len(counts) > maxCategories {
		counts = counts.Fold(maxCategories-1, othersLabel)
	}
	return &DistributionResult{
		Column: column,
		Total:  len(items),
		Counts: counts,
		Table:  FrequencyTable(counts),
	}, nil
}

// splitAnswers splits a multiple answer cell, keeping items longer than two
// characters.
func splitAnswers(s string) []string {
	s = strings.NewReplacer(";", ",", "\n", ",").Replace(s)
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if len([]rune(item)) > 2 {
			out = append(out, item)
		}
	}
	return out
}

var hundred = decimal.NewFromInt(100)

// FrequencyTable turns counts into rows with percentages of the total.
func FrequencyTable(counts Counts) []FrequencyRow {
	total := decimal.NewFromInt(int64(counts.Total()))
	rows := make([]FrequencyRow, len(counts))
	for i, c := range counts {
		p := decimal.Zero
		if !total.IsZero() {
			p = decimal.NewFromInt(int64(c.Count)).Mul(hundred).Div(total).Round(2)
		}
		rows[i] = FrequencyRow{Category: c.Category, Count: c.Count, Percentage: p}
	}
	return rows
}
