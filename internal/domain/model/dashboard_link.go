/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// DashboardLink is an entry of the visualization hub: an external dashboard
// built on top of the survey.
type DashboardLink struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Tags        []string  `json:"tags"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasAnyTag reports whether l carries at least one of tags.
func (l *DashboardLink) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range l.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}
