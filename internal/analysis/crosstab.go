/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/util"
)

const (
	DefaultCrosstabTopN = 8
	maxCombinations     = 8
	maxLabelRunes       = 20
	// a remainder smaller than this is not worth showing
	minRemainder = 2
)

// Combination is one non-empty cell of a crosstab, as a share of the total
// rounded to whole percents.
type Combination struct {
	Label      string `json:"label"`
	Row        string `json:"row"`
	Col        string `json:"col"`
	Percentage int    `json:"percentage"`
	Count      int    `json:"count"`
}

// Association summarises the relation between the two variables.
type Association struct {
	Total        int     `json:"total"`
	NonZero      int     `json:"non_zero"`
	MaxRow       string  `json:"max_row"`
	MaxCol       string  `json:"max_col"`
	MaxCount     int     `json:"max_count"`
	MaxShare     float64 `json:"max_share"`
	RowDistinct  int     `json:"row_distinct"`
	ColDistinct  int     `json:"col_distinct"`
	RowsInOthers int     `json:"rows_in_others"`
	ColsInOthers int     `json:"cols_in_others"`
	RowOthers    int     `json:"row_others_cases"`
	ColOthers    int     `json:"col_others_cases"`
}

// CrosstabResult is the contingency table of two categorical variables.
// Rows and Cols are ordered by frequency.
type CrosstabResult struct {
	Var1         string        `json:"var1"`
	Var2         string        `json:"var2"`
	Rows         []string      `json:"rows"`
	Cols         []string      `json:"cols"`
	Cells        [][]int       `json:"cells"`
	Association  Association   `json:"association"`
	Combinations []Combination `json:"combinations"`
	// Remainder is the share left out of Combinations, zero when negligible.
	Remainder int    `json:"remainder"`
	Insights  string `json:"insights"`
}

// Cell returns the count for a row and column label.
func (r *CrosstabResult) Cell(row, col string) int {
	i, j := indexOf(r.Rows, row), indexOf(r.Cols, col)
	if i < 0 || j < 0 {
		return 0
	}
	return r.Cells[i][j]
}

func indexOf(list []string, s string) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return -1
}

// Crosstab crosses two columns over the rows where both are answered. Each
// variable keeps its topN most frequent categories and groups the rest
// under "Otros".
func Crosstab(ds *dataset.Dataset, col1, col2 string, topN int) (*CrosstabResult, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	i1, i2 := ds.Index(col1), ds.Index(col2)
	if i1 < 0 {
		return nil, &ColumnNotFoundError{Column: col1}
	}
	if i2 < 0 {
		return nil, &ColumnNotFoundError{Column: col2}
	}
	if topN < 1 {
		topN = DefaultCrosstabTopN
	}

	var a, b []string
	for _, row := range ds.Rows {
		if row[i1].IsNull() || row[i2].IsNull() {
			continue
		}
		a = append(a, cleanCategory(row[i1]))
		b = append(b, cleanCategory(row[i2]))
	}
	if len(a) == 0 {
		return nil, fmt.Errorf("crosstab %q x %q: %w", col1, col2, domain.ErrNoData)
	}

	ga, distinctA, foldedA := groupTop(a, topN)
	gb, distinctB, foldedB := groupTop(b, topN)
	rows := ValueCounts(ga).Categories()
	cols := ValueCounts(gb).Categories()

	res := &CrosstabResult{
		Var1:  col1,
		Var2:  col2,
		Rows:  rows,
		Cols:  cols,
		Cells: make([][]int, len(rows)),
	}
	for i := range res.Cells {
		res.Cells[i] = make([]int, len(cols))
	}
	for k := range ga {
		res.Cells[indexOf(rows, ga[k])][indexOf(cols, gb[k])]++
	}

	res.Association = associate(res, distinctA, distinctB, foldedA, foldedB)
	res.Combinations, res.Remainder = combinations(res)
	res.Insights = crosstabInsights(res)
	return res, nil
}

// groupTop replaces the categories outside the topN most frequent with
// "Otros". It also returns the number of distinct categories before grouping
// and how many of them were folded. A source category named "Otros" that
// makes the topN is kept and not counted as folded.
func groupTop(values []string, topN int) ([]string, int, int) {
	counts := ValueCounts(values)
	if len(counts) <= topN {
		return values, len(counts), 0
	}
	keep := util.NewSet[string]()
	for _, c := range counts.Top(topN) {
		keep.Add(c.Category)
	}
	out := make([]string, len(values))
	for i, v := range values {
		if keep.Has(v) {
			out[i] = v
		} else {
			out[i] = othersLabel
		}
	}
	return out, len(counts), len(counts) - keep.Len()
}

func associate(r *CrosstabResult, distinctA, distinctB, foldedA, foldedB int) Association {
	a := Association{RowDistinct: distinctA, ColDistinct: distinctB}
	for i, row := range r.Cells {
		for j, n := range row {
			a.Total += n
			if n > 0 {
				a.NonZero++
			}
			if n > a.MaxCount {
				a.MaxCount, a.MaxRow, a.MaxCol = n, r.Rows[i], r.Cols[j]
			}
		}
	}
	a.MaxShare = percent(a.MaxCount, a.Total)
	if i := indexOf(r.Rows, othersLabel); i >= 0 && foldedA > 0 {
		a.RowsInOthers = foldedA
		for _, n := range r.Cells[i] {
			a.RowOthers += n
		}
	}
	if j := indexOf(r.Cols, othersLabel); j >= 0 && foldedB > 0 {
		a.ColsInOthers = foldedB
		for _, row := range r.Cells {
			a.ColOthers += row[j]
		}
	}
	return a
}

func combinations(r *CrosstabResult) ([]Combination, int) {
	total := r.Association.Total
	var out []Combination
	for i, row := range r.Cells {
		for j, n := range row {
			if n == 0 {
				continue
			}
			p := int(math.RoundToEven(float64(n) / float64(total) * 100))
			if p < 1 {
				continue
			}
			out = append(out, Combination{
				Label:      truncateLabel(r.Rows[i]) + " × " + truncateLabel(r.Cols[j]),
				Row:        r.Rows[i],
				Col:        r.Cols[j],
				Percentage: p,
				Count:      n,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percentage > out[j].Percentage })
	if len(out) > maxCombinations {
		out = out[:maxCombinations]
	}
	sum := 0
	for _, c := range out {
		sum += c.Percentage
	}
	remainder := 0
	if rest := 100 - sum; rest >= minRemainder {
		remainder = rest
	}
	return out, remainder
}

func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelRunes {
		return s
	}
	return string(r[:maxLabelRunes]) + "..."
}

func crosstabInsights(r *CrosstabResult) string {
	a := r.Association
	var b strings.Builder
	b.WriteString("### 🔍 Insights del Cruce\n")
	fmt.Fprintf(&b, "**Combinación más frecuente:** %s + %s: %d casos (%s)\n", a.MaxRow, a.MaxCol, a.MaxCount, pct(a.MaxShare))
	fmt.Fprintf(&b, "**Total casos:** %s | **Combinaciones:** %d\n", thousands(a.Total), a.NonZero)
	fmt.Fprintf(&b, "**Categorías:** Var1: %d/%d | Var2: %d/%d", len(r.Rows), a.RowDistinct, len(r.Cols), a.ColDistinct)
	if a.RowsInOthers > 0 || a.ColsInOthers > 0 {
		b.WriteString("\n\n**📊 Agrupación aplicada:**")
		if a.RowsInOthers > 0 {
			fmt.Fprintf(&b, "\n- Variable 1: %d categorías en 'Otros' (%s casos)", a.RowsInOthers, thousands(a.RowOthers))
		}
		if a.ColsInOthers > 0 {
			fmt.Fprintf(&b, "\n- Variable 2: %d categorías en 'Otros' (%s casos)", a.ColsInOthers, thousands(a.ColOthers))
		}
	}
	return b.String()
}
