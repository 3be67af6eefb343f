/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDashboardLink_HasAnyTag(t *testing.T) {
	l := &DashboardLink{Tags: []string{"Temas", "Tipología"}}
	assert.True(t, l.HasAnyTag([]string{"Sectores", "Temas"}))
	assert.False(t, l.HasAnyTag([]string{"Sectores"}))
	assert.False(t, l.HasAnyTag(nil))
}
