/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dataset

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics so that "PROBLEMÁTICAS" and
// "problematicas" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// FindColumn returns the first of exact that is a column, or else the first
// column whose folded name contains any of partial.
func (d *Dataset) FindColumn(exact []string, partial ...string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, name := range exact {
		if d.HasColumn(name) {
			return name, true
		}
	}
	if len(partial) == 0 {
		return "", false
	}
	folded := make([]string, 0, len(partial))
	for _, p := range partial {
		if p = Fold(p); p != "" {
			folded = append(folded, p)
		}
	}
	return d.FindColumnFunc(func(col string) bool {
		for _, p := range folded {
			if strings.Contains(col, p) {
				return true
			}
		}
		return false
	})
}

// FindColumnFunc returns the first column whose folded name satisfies match.
func (d *Dataset) FindColumnFunc(match func(folded string) bool) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, c := range d.Columns {
		if match(Fold(c)) {
			return c, true
		}
	}
	return "", false
}

// ContainsAll builds a FindColumnFunc matcher requiring every term.
func ContainsAll(terms ...string) func(string) bool {
	folded := make([]string, len(terms))
	for i, t := range terms {
		folded[i] = Fold(t)
	}
	return func(col string) bool {
		for _, t := range folded {
			if !strings.Contains(col, t) {
				return false
			}
		}
		return true
	}
}

const maxDefaultColumns = 6

var importantColumns = []struct {
	exact   string
	pattern *regexp.Regexp
}{
	{ColTipoComedor, regexp.MustCompile(`tipo.*comedor`)},
	{ColNombreComedor, regexp.MustCompile(`nombre.*comedor`)},
	{ColBarrio, regexp.MustCompile(`barrio`)},
	{ColComuna, regexp.MustCompile(`comuna`)},
	{ColNodo, regexp.MustCompile(`nodo`)},
	{ColNicho, regexp.MustCompile(`nicho`)},
}

// DefaultColumns picks the columns shown when the caller selects none.
func (d *Dataset) DefaultColumns() []string {
	var out []string
	taken := map[string]bool{}
	for _, ic := range importantColumns {
		if d.HasColumn(ic.exact) {
			if !taken[ic.exact] {
				out = append(out, ic.exact)
				taken[ic.exact] = true
			}
			continue
		}
		if col, ok := d.FindColumnFunc(ic.pattern.MatchString); ok && !taken[col] {
			out = append(out, col)
			taken[col] = true
		}
	}
	if len(out) > maxDefaultColumns {
		out = out[:maxDefaultColumns]
	}
	return out
}
