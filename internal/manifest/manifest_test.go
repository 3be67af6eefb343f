/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_Requirements(t *testing.T) {
	m, err := ParseFile("testdata/requirements.txt")
	require.Nil(t, err)

	assert.Len(t, m.Entries, 19)
	assert.Len(t, m.Active(), 16)
	assert.Equal(t, []string{
		"Core",
		"Google Sheets integration",
		"Visualization",
		"Environment and configuration",
		"Export",
		"Utilities",
		"Development and testing (optional)",
		"Performance monitoring (optional)",
		"Date and time",
	}, m.Categories)

	core := m.InCategory("Core")
	require.Len(t, core, 3)
	assert.Equal(t, "streamlit", core[0].Name)
	assert.Equal(t, []Constraint{{Op: OpGe, Version: "1.28.0"}}, stripParsed(core[0].Constraints))

	dev := m.InCategory("Development and testing (optional)")
	require.Len(t, dev, 2)
	assert.True(t, dev[0].Disabled)
	assert.Equal(t, "pytest", dev[0].Name)

	assert.Empty(t, Validate(m))
}

func stripParsed(cs []Constraint) []Constraint {
	out := make([]Constraint, len(cs))
	for i, c := range cs {
		out[i] = Constraint{Op: c.Op, Version: c.Version, Wildcard: c.Wildcard}
	}
	return out
}

func TestParseSpecifier(t *testing.T) {
	e, err := ParseSpecifier("google-auth[requests, aiohttp] >=2.0, <3, !=2.5.1 ; python_version >= '3.8'")
	require.Nil(t, err)
	assert.Equal(t, "google-auth", e.Name)
	assert.Equal(t, []string{"requests", "aiohttp"}, e.Extras)
	assert.Equal(t, "python_version >= '3.8'", e.Marker)
	assert.Equal(t, []Constraint{
		{Op: OpGe, Version: "2.0"},
		{Op: OpLt, Version: "3"},
		{Op: OpNe, Version: "2.5.1"},
	}, stripParsed(e.Constraints))
	assert.Equal(t, "google-auth[requests,aiohttp]>=2.0,<3,!=2.5.1; python_version >= '3.8'", e.String())

	e, err = ParseSpecifier("numpy==1.26.*")
	require.Nil(t, err)
	assert.True(t, e.Constraints[0].Wildcard)
	assert.Equal(t, "==1.26.*", e.Constraints[0].String())
}

func TestParseSpecifier_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{">=1.0", ErrEmptyName},
		{"-pandas", ErrInvalidName},
		{"pandas[x", ErrInvalidName},
		{"pandas=>1.0", ErrInvalidOperator},
		{"pandas>=", ErrInvalidVersion},
		{"pandas>=abc", ErrInvalidVersion},
		{"pandas>=1.*", ErrInvalidVersion},
		{"pandas~=1", ErrInvalidVersion},
	}
	for _, tt := range tests {
		_, err := ParseSpecifier(tt.in)
		assert.ErrorIs(t, err, tt.want, tt.in)
	}
}

func TestParse_ReportsLine(t *testing.T) {
	_, err := Parse(strings.NewReader("# Core\npandas>=2.0\n\nplotly>>5\n"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 4, pe.Line)
	assert.Equal(t, "plotly>>5", pe.Text)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestParse_InlineComment(t *testing.T) {
	m, err := Parse(strings.NewReader("requests>=2.31.0  # HTTP\n"))
	require.Nil(t, err)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "2.31.0", m.Entries[0].Constraints[0].Version)
	assert.Equal(t, "", m.Entries[0].Category)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "google-auth", NormalizeName("Google_Auth"))
	assert.Equal(t, "python-dateutil", NormalizeName("python.-dateutil"))
}

func mustConstraints(t *testing.T, spec string) []Constraint {
	t.Helper()
	e, err := ParseSpecifier("x" + spec)
	require.Nil(t, err, spec)
	return e.Constraints
}

func TestSatisfiable(t *testing.T) {
	tests := []struct {
		spec string
		want bool
	}{
		{"", true},
		{">=1.0", true},
		{">=1.0,<2.0", true},
		{">=2.0,<2.0", false},
		{">2.0,<=2.0", false},
		{">=2.0,<=2.0", true},
		{">=3.0,<2.0", false},
		{"==1.5,>=1.0,<2", true},
		{"==2.5,<2", false},
		{"==1.5,!=1.5", false},
		{"~=2.2,>=3.0", false},
		{"~=2.2,<2.9", true},
		{"~=2.2.1,>=2.3", false},
		{"==1.2.*,>=1.2.5", true},
		{"==1.2.*,>=1.3", false},
		{">=1.2,<1.3,!=1.2.*", false},
		{">=1.2,<1.4,!=1.2.*", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Satisfiable(mustConstraints(t, tt.spec)), tt.spec)
	}
}

func TestValidate(t *testing.T) {
	m, err := Parse(strings.NewReader(strings.Join([]string{
		"# Core",
		"pandas>=2.0,<1.5",
		"plotly>=5.0",
		"Plotly<6",
		"numpy>=1.24",
		"numpy<1.20",
		"# numpy==1.0.0",
	}, "\n")))
	require.Nil(t, err)

	issues := Validate(m)
	require.Len(t, issues, 3)

	assert.Equal(t, IssueUnsatisfiable, issues[0].Kind)
	assert.Equal(t, "pandas", issues[0].Name)
	assert.Equal(t, []int{2}, issues[0].Lines)

	assert.Equal(t, IssueDuplicate, issues[1].Kind)
	assert.Equal(t, []int{3, 4}, issues[1].Lines)
	assert.False(t, issues[1].IsError())

	assert.Equal(t, IssueConflict, issues[2].Kind)
	assert.Equal(t, "numpy", issues[2].Name)
	assert.True(t, issues[2].IsError())
	assert.Contains(t, issues[2].String(), "line 5, 6")
}
