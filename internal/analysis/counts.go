/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"sort"
	"strings"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
)

// Count is the frequency of one category.
type Count struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Counts is sorted by frequency, most frequent first.
type Counts []Count

// ValueCounts tallies values. Ties keep the order of first appearance.
func ValueCounts(values []string) Counts {
	pos := map[string]int{}
	var out Counts
	for _, v := range values {
		if i, ok := pos[v]; ok {
			out[i].Count++
			continue
		}
		pos[v] = len(out)
		out = append(out, Count{Category: v, Count: 1})
	}
	out.sortDesc()
	return out
}

// Total is the sum of all counts.
func (c Counts) Total() int {
	n := 0
	for _, x := range c {
		n += x.Count
	}
	return n
}

// Top returns at most n leading entries.
func (c Counts) Top(n int) Counts {
	if n < 0 || n >= len(c) {
		return c
	}
	return c[:n]
}

// Categories lists the category names in order.
func (c Counts) Categories() []string {
	out := make([]string, len(c))
	for i, x := range c {
		out[i] = x.Category
	}
	return out
}

// Lookup returns the count of category.
func (c Counts) Lookup(category string) int {
	for _, x := range c {
		if x.Category == category {
			return x.Count
		}
	}
	return 0
}

// Fold keeps the first keep entries and sums the rest under label. An entry
// already named label is merged too, and the result is sorted again.
func (c Counts) Fold(keep int, label string) Counts {
	if keep < 0 || len(c) <= keep {
		return c
	}
	out := append(Counts(nil), c[:keep]...)
	rest := 0
	for _, x := range c[keep:] {
		rest += x.Count
	}
	if rest == 0 {
		return out
	}
	merged := false
	for i := range out {
		if out[i].Category == label {
			out[i].Count += rest
			merged = true
		}
	}
	if !merged {
		out = append(out, Count{Category: label, Count: rest})
	}
	out.sortDesc()
	return out
}

func (c Counts) sortDesc() {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Count > c[j].Count })
}

// ParseMultipleOptions splits comma separated answers into options, dropping
// empty and null-looking ones.
func ParseMultipleOptions(values []string) []string {
	var out []string
	for _, entry := range values {
		if isNullish(entry) {
			continue
		}
		for _, opt := range strings.Split(entry, ",") {
			opt = strings.TrimSpace(opt)
			if isNullish(opt) {
				continue
			}
			out = append(out, opt)
		}
	}
	return out
}

func isNullish(s string) bool {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return true
	}
	return false
}

// nonNull returns the canonical text of the non-null values of col.
func nonNull(values []dataset.Value) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !v.IsNull() {
			out = append(out, v.String())
		}
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
