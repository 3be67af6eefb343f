/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package manifest parses and validates line oriented dependency manifests
// such as a requirements.txt file.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/blang/semver/v4"
)

// Op is a version comparison operator.
type Op string

const (
	OpEq         Op = "=="
	OpNe         Op = "!="
	OpGe         Op = ">="
	OpLe         Op = "<="
	OpGt         Op = ">"
	OpLt         Op = "<"
	OpCompatible Op = "~="
)

// two character operators come first so that ">=" is not read as ">"
var operators = []Op{OpEq, OpNe, OpGe, OpLe, OpCompatible, OpGt, OpLt}

var (
	ErrEmptyName       = errors.New("missing dependency name")
	ErrInvalidName     = errors.New("invalid dependency name")
	ErrInvalidOperator = errors.New("invalid operator")
	ErrInvalidVersion  = errors.New("invalid version")
)

// Constraint is one operator and version pair, e.g. >=2.2.0.
type Constraint struct {
	Op      Op     `json:"op"`
	Version string `json:"version"`
	// Wildcard is set for prefix matches such as ==1.2.*
	Wildcard bool `json:"wildcard,omitempty"`

	parsed  semver.Version
	epoch   uint64
	release []uint64
	// plain is set when Version has no pre, post or dev tag
	plain bool
}

func (c Constraint) String() string {
	if c.Wildcard {
		return string(c.Op) + c.Version + ".*"
	}
	return string(c.Op) + c.Version
}

// Entry is a dependency declared on one line.
type Entry struct {
	Line        int          `json:"line"`
	Name        string       `json:"name"`
	Extras      []string     `json:"extras,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`
	Marker      string       `json:"marker,omitempty"`
	Category    string       `json:"category,omitempty"`
	// Disabled entries are commented out, e.g. "# pytest>=7.0.0".
	Disabled bool `json:"disabled,omitempty"`
}

// Key is the normalized project name: lower case with runs of "-", "_" and
// "." folded into a single "-".
func (e Entry) Key() string {
	return NormalizeName(e.Name)
}

func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	if len(e.Extras) > 0 {
		b.WriteString("[" + strings.Join(e.Extras, ",") + "]")
	}
	for i, c := range e.Constraints {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.String())
	}
	if e.Marker != "" {
		b.WriteString("; " + e.Marker)
	}
	return b.String()
}

// Manifest is a parsed dependency file.
type Manifest struct {
	Entries []Entry `json:"entries"`
	// Categories are the comment headers in order of appearance.
	Categories []string `json:"categories"`
}

// Active returns the entries that are not commented out.
func (m *Manifest) Active() []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if !e.Disabled {
			out = append(out, e)
		}
	}
	return out
}

// InCategory returns the entries listed under the category header.
func (m *Manifest) InCategory(category string) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// ParseError reports the line that could not be parsed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a manifest. Blank lines are skipped. A comment that parses as a
// constrained specifier is kept as a disabled entry; any other comment starts
// a new category.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{Categories: []string{}}
	category := ""
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			body := strings.TrimSpace(strings.TrimLeft(text, "#"))
			if body == "" {
				continue
			}
			if e, err := ParseSpecifier(body); err == nil && len(e.Constraints) > 0 {
				e.Line = line
				e.Category = category
				e.Disabled = true
				m.Entries = append(m.Entries, e)
				continue
			}
			category = body
			m.Categories = append(m.Categories, category)
			continue
		}
		e, err := ParseSpecifier(stripInlineComment(text))
		if err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: err}
		}
		e.Line = line
		e.Category = category
		m.Entries = append(m.Entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func stripInlineComment(s string) string {
	if i := strings.Index(s, " #"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	nameSplitter = regexp.MustCompile(`[-_.]+`)
)

// NormalizeName folds a project name so that equivalent spellings compare
// equal, e.g. "Google_Auth" and "google-auth".
func NormalizeName(name string) string {
	return strings.ToLower(nameSplitter.ReplaceAllString(name, "-"))
}

// ParseSpecifier parses "name[extras]op1v1,op2v2; marker".
func ParseSpecifier(s string) (Entry, error) {
	var e Entry
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";"); i >= 0 {
		e.Marker = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
	}

	end := strings.IndexAny(s, "[=!<>~ ")
	if end < 0 {
		end = len(s)
	}
	e.Name = s[:end]
	rest := strings.TrimSpace(s[end:])
	if e.Name == "" {
		return Entry{}, ErrEmptyName
	}
	if !namePattern.MatchString(e.Name) {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidName, e.Name)
	}

	if strings.HasPrefix(rest, "[") {
		closing := strings.Index(rest, "]")
		if closing < 0 {
			return Entry{}, fmt.Errorf("%w: unterminated extras", ErrInvalidName)
		}
		for _, x := range strings.Split(rest[1:closing], ",") {
			x = strings.TrimSpace(x)
			if !namePattern.MatchString(x) {
				return Entry{}, fmt.Errorf("%w: extra %q", ErrInvalidName, x)
			}
			e.Extras = append(e.Extras, x)
		}
		rest = strings.TrimSpace(rest[closing+1:])
	}

	if rest == "" {
		return e, nil
	}
	for _, part := range strings.Split(rest, ",") {
		c, err := parseConstraint(strings.TrimSpace(part))
		if err != nil {
			return Entry{}, err
		}
		e.Constraints = append(e.Constraints, c)
	}
	return e, nil
}

func parseConstraint(s string) (Constraint, error) {
	var c Constraint
	for _, op := range operators {
		if strings.HasPrefix(s, string(op)) {
			c.Op = op
			break
		}
	}
	if c.Op == "" {
		return c, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
	v := strings.TrimSpace(s[len(c.Op):])
	if strings.HasSuffix(v, ".*") {
		if c.Op != OpEq && c.Op != OpNe {
			return c, fmt.Errorf("%w: wildcard with %s", ErrInvalidVersion, c.Op)
		}
		c.Wildcard = true
		v = strings.TrimSuffix(v, ".*")
	}
	if v == "" || strings.ContainsAny(v, " *") {
		return c, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	parsed, err := parseVersion(v)
	if err != nil {
		return c, err
	}
	if c.Wildcard && !parsed.plainRelease() {
		return c, fmt.Errorf("%w: wildcard after %q", ErrInvalidVersion, v)
	}
	c.Version = v
	c.parsed = parsed.key()
	c.epoch = parsed.epoch
	c.release = parsed.release
	c.plain = parsed.plainRelease()
	if c.Op == OpCompatible && len(c.release) < 2 {
		return c, fmt.Errorf("%w: %s needs at least two release segments", ErrInvalidVersion, OpCompatible)
	}
	return c, nil
}
