/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// IssueKind classifies a validation finding.
type IssueKind string

const (
	// IssueUnsatisfiable: no version meets every constraint of one entry.
	IssueUnsatisfiable IssueKind = "unsatisfiable"
	// IssueConflict: a project is listed twice and no version meets both.
	IssueConflict IssueKind = "conflict"
	// IssueDuplicate: a project is listed twice with compatible constraints.
	IssueDuplicate IssueKind = "duplicate"
)

// Issue is a validation finding.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Name    string    `json:"name"`
	Lines   []int     `json:"lines"`
	Message string    `json:"message"`
}

// IsError reports whether the issue makes the manifest uninstallable.
func (i Issue) IsError() bool {
	return i.Kind != IssueDuplicate
}

func (i Issue) String() string {
	lines := make([]string, len(i.Lines))
	for k, l := range i.Lines {
		lines[k] = fmt.Sprint(l)
	}
	return fmt.Sprintf("%s (line %s): %s", i.Name, strings.Join(lines, ", "), i.Message)
}

// Validate checks that every active entry can be satisfied and that no
// project is declared twice with conflicting constraints.
func Validate(m *Manifest) []Issue {
	issues := []Issue{}
	type group struct {
		name    string
		entries []Entry
	}
	var order []string
	groups := map[string]*group{}

	for _, e := range m.Active() {
		if !Satisfiable(e.Constraints) {
			issues = append(issues, Issue{
				Kind:    IssueUnsatisfiable,
				Name:    e.Name,
				Lines:   []int{e.Line},
				Message: fmt.Sprintf("no version satisfies %s", joinConstraints(e.Constraints)),
			})
		}
		g, ok := groups[e.Key()]
		if !ok {
			g = &group{name: e.Name}
			groups[e.Key()] = g
			order = append(order, e.Key())
		}
		g.entries = append(g.entries, e)
	}

	for _, key := range order {
		g := groups[key]
		if len(g.entries) < 2 {
			continue
		}
		var all []Constraint
		var specs []string
		var lineNums []int
		for _, e := range g.entries {
			all = append(all, e.Constraints...)
			lineNums = append(lineNums, e.Line)
			specs = append(specs, e.String())
		}
		kind, msg := IssueDuplicate, "listed more than once: "+strings.Join(specs, " and ")
		if !Satisfiable(all) {
			kind, msg = IssueConflict, "conflicting declarations: "+strings.Join(specs, " and ")
		}
		issues = append(issues, Issue{Kind: kind, Name: g.name, Lines: lineNums, Message: msg})
	}
	return issues
}

func joinConstraints(cs []Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

type bound struct {
	set       bool
	v         semver.Version
	inclusive bool
}

// tighterLower reports whether b is a stricter lower bound than a.
func tighterLower(a, b bound) bool {
	if !a.set {
		return true
	}
	switch cmp := b.v.Compare(a.v); {
	case cmp > 0:
		return true
	case cmp == 0:
		return a.inclusive && !b.inclusive
	}
	return false
}

func tighterUpper(a, b bound) bool {
	if !a.set {
		return true
	}
	switch cmp := b.v.Compare(a.v); {
	case cmp < 0:
		return true
	case cmp == 0:
		return a.inclusive && !b.inclusive
	}
	return false
}

// Satisfiable reports whether some version meets every constraint.
func Satisfiable(cs []Constraint) bool {
	var lower, upper bound
	var excluded []Constraint

	narrow := func(lo, hi bound) {
		if lo.set && tighterLower(lower, lo) {
			lower = lo
		}
		if hi.set && tighterUpper(upper, hi) {
			upper = hi
		}
	}

	for _, c := range cs {
		switch c.Op {
		case OpEq:
			if c.Wildcard {
				lo, hi := prefixRange(c.epoch, c.release, len(c.release))
				narrow(bound{true, lo, true}, bound{true, hi, false})
			} else {
				narrow(bound{true, c.parsed, true}, bound{true, c.parsed, true})
			}
		case OpGe:
			narrow(bound{true, c.parsed, true}, bound{})
		case OpGt:
			// >1.0 does not match the post-releases of 1.0
			lo := c.parsed
			if c.plain {
				lo = postCeiling(c.epoch, c.release)
			}
			narrow(bound{true, lo, false}, bound{})
		case OpLe:
			narrow(bound{}, bound{true, c.parsed, true})
		case OpLt:
			// <2.0 does not match the pre-releases of 2.0
			hi := c.parsed
			if c.plain {
				hi = releaseKey(c.epoch, c.release)
			}
			narrow(bound{}, bound{true, hi, false})
		case OpCompatible:
			// ~=2.2 means >=2.2,==2.*; ~=2.2.1 means >=2.2.1,==2.2.*
			_, hi := prefixRange(c.epoch, c.release, len(c.release)-1)
			narrow(bound{true, c.parsed, true}, bound{true, hi, false})
		case OpNe:
			excluded = append(excluded, c)
		}
	}

	if lower.set && upper.set {
		switch cmp := lower.v.Compare(upper.v); {
		case cmp > 0:
			return false
		case cmp == 0:
			if !lower.inclusive || !upper.inclusive {
				return false
			}
			// a single candidate: it must not be excluded
			for _, x := range excluded {
				if excludes(x, lower.v) {
					return false
				}
			}
			return true
		}
	}

	// a range is only emptied by a wildcard exclusion covering all of it
	for _, x := range excluded {
		if !x.Wildcard || !lower.set || !upper.set {
			continue
		}
		lo, hi := prefixRange(x.epoch, x.release, len(x.release))
		if lower.v.GTE(lo) && (upper.v.LT(hi) || (upper.v.EQ(hi) && !upper.inclusive)) {
			return false
		}
	}
	return true
}

func excludes(c Constraint, v semver.Version) bool {
	if !c.Wildcard {
		return v.EQ(c.parsed)
	}
	lo, hi := prefixRange(c.epoch, c.release, len(c.release))
	return v.GTE(lo) && v.LT(hi)
}
