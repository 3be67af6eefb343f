/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

// XLSXLoader reads a worksheet of a local workbook, typically a download of
// the survey sheet used for offline work.
type XLSXLoader struct {
	path      string
	worksheet string
}

func NewXLSXLoader(path, worksheet string) *XLSXLoader {
	return &XLSXLoader{path: path, worksheet: worksheet}
}

func (l *XLSXLoader) Describe() string {
	return fmt.Sprintf("xlsx:%s/%s", l.path, l.worksheet)
}

// Load opens the workbook on every call so that edits are picked up.
func (l *XLSXLoader) Load(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := l.load(ctx)
	if err != nil {
		return nil, &LoadError{Source: l.Describe(), Err: err}
	}
	return ds, nil
}

func (l *XLSXLoader) load(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSpreadsheetNotFound, err)
		}
		return nil, err
	}
	defer f.Close()

	sheet := l.worksheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%q: %w", sheet, domain.ErrWorksheetNotFound)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoData
	}
	return dataset.FromRows(rows)
}
