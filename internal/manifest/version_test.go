/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion_Forms(t *testing.T) {
	tests := []struct {
		in      string
		epoch   uint64
		release []uint64
		phase   uint64
		post    bool
		dev     bool
	}{
		{"4.0rc1", 0, []uint64{4, 0}, phaseRC, false, false},
		{"1.2.3.4", 0, []uint64{1, 2, 3, 4}, phaseFinal, false, false},
		{"1.0.post1", 0, []uint64{1, 0}, phaseFinal, true, false},
		{"1.0-1", 0, []uint64{1, 0}, phaseFinal, true, false},
		{"2.0.0.dev0", 0, []uint64{2, 0, 0}, phaseDevOnly, false, true},
		{"1!2.0", 1, []uint64{2, 0}, phaseFinal, false, false},
		{"1.0a1.post2.dev3", 0, []uint64{1, 0}, phaseAlpha, true, true},
		{"2.0-Beta.4", 0, []uint64{2, 0}, phaseBeta, false, false},
		{"v1.5+ubuntu.1", 0, []uint64{1, 5}, phaseFinal, false, false},
	}
	for _, tt := range tests {
		v, err := parseVersion(tt.in)
		require.Nil(t, err, tt.in)
		assert.Equal(t, tt.epoch, v.epoch, tt.in)
		assert.Equal(t, tt.release, v.release, tt.in)
		assert.Equal(t, tt.phase, v.phase, tt.in)
		assert.Equal(t, tt.post, v.post, tt.in)
		assert.Equal(t, tt.dev, v.dev, tt.in)
	}

	for _, bad := range []string{"abc", "1..2", "1.0.beta.x", "1.2.3.4.5.6.7"} {
		_, err := parseVersion(bad)
		assert.ErrorIs(t, err, ErrInvalidVersion, bad)
	}
}

func TestVersionOrdering(t *testing.T) {
	ordered := []string{
		"1.0.dev0",
		"1.0a1.dev0",
		"1.0a1",
		"1.0a1.post1",
		"1.0b1",
		"1.0rc1",
		"1.0",
		"1.0.post1.dev0",
		"1.0.post1",
		"1.0.1",
		"1.0.1.1",
		"1!0.1",
	}
	for i := 1; i < len(ordered); i++ {
		a, err := parseVersion(ordered[i-1])
		require.Nil(t, err)
		b, err := parseVersion(ordered[i])
		require.Nil(t, err)
		assert.True(t, a.key().LT(b.key()), "%s < %s", ordered[i-1], ordered[i])
	}

	a, _ := parseVersion("1.0")
	b, _ := parseVersion("1.0.0.0")
	assert.True(t, a.key().EQ(b.key()))
}

func TestParse_PEP440Specifiers(t *testing.T) {
	m, err := Parse(strings.NewReader(strings.Join([]string{
		"Django>=4.0rc1",
		"foo==1.2.3.4",
		"bar>=1.0.post1",
		"baz>=2.0.0.dev0",
		"pkg==1!2.0",
	}, "\n")))
	require.Nil(t, err)
	require.Len(t, m.Entries, 5)
	assert.Equal(t, "4.0rc1", m.Entries[0].Constraints[0].Version)
	assert.Empty(t, Validate(m))
}

func TestSatisfiable_PEP440(t *testing.T) {
	tests := []struct {
		spec string
		want bool
	}{
		{">=4.0rc1,<=4.0rc2", true},
		{">4.0,<4.0rc1", false},
		{"==1.2.3.4,>=1.2.3", true},
		{"==1.2.3.4,<1.2.3.4", false},
		{"==1.2.3.4,==1.2.3.*", true},
		{">=1.0.post1,<1.0.1", true},
		{"==1.0.post1,<=1.0", false},
		{"==1.0.post1,>1.0", false},
		{">=2.0.0.dev0,<2.0a1", true},
		{"==2.0.dev0,>=2.0a1", false},
		{"==1!2.0,<3.0", false},
		{"==1!2.0,>=1!1.0", true},
		{"==1.0,==1.0.0", true},
		{"==2.0rc1,<2.0", false},
		{"~=2.2rc1,<2.2", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Satisfiable(mustConstraints(t, tt.spec)), tt.spec)
	}
}
