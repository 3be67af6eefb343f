/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package export writes the filtered survey rows as downloadable files.
package export

import (
	"fmt"
	"time"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
)

const (
	DefaultDateFormat = "20060102_150405"
	DefaultPrefix     = "comedores_filtrados"
)

// Filename builds names like comedores_filtrados_20250107_153000.csv.
func Filename(prefix, ext string, now time.Time) string {
	return FilenameWithLayout(prefix, ext, DefaultDateFormat, now)
}

// FilenameWithLayout is Filename with a custom time layout.
func FilenameWithLayout(prefix, ext, layout string, now time.Time) string {
	if layout == "" {
		layout = DefaultDateFormat
	}
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format(layout), ext)
}

// project selects columns, or keeps every column when none are given.
func project(ds *dataset.Dataset, columns []string) (*dataset.Dataset, error) {
	if len(columns) == 0 {
		return ds, nil
	}
	return ds.Select(columns)
}
