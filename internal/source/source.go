/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package source loads the survey worksheet into a dataset.
package source

import (
	"context"
	"fmt"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
)

// Loader fetches the current survey answers.
type Loader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
	// Describe identifies the source in logs and snapshots.
	Describe() string
}

// LoadError wraps a failure of a Loader with the source it came from.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Unavailable returns a Loader that always fails with err. The dashboard
// keeps serving the hub and reporting the problem when the real source
// cannot be built.
func Unavailable(describe string, err error) Loader {
	return &unavailable{describe: describe, err: err}
}

type unavailable struct {
	describe string
	err      error
}

func (u *unavailable) Load(ctx context.Context) (*dataset.Dataset, error) {
	return nil, &LoadError{Source: u.describe, Err: u.err}
}

func (u *unavailable) Describe() string {
	return u.describe
}

// stringify renders the cells returned by a spreadsheet API as text.
func stringify(rows [][]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out
}
