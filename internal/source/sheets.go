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
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

// DriveReadonlyScope is requested alongside the sheets scope so that sheets
// shared through Drive can be opened.
const DriveReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"

// Scopes requested by the service account.
var Scopes = []string{sheets.SpreadsheetsReadonlyScope, DriveReadonlyScope}

// SheetsLoader reads a worksheet through the Google Sheets API.
type SheetsLoader struct {
	sheetID   string
	worksheet string
	svc       *sheets.Service
}

// CredentialsOption picks inline service account JSON when given, otherwise
// the key file at path.
func CredentialsOption(path, inlineJSON string) option.ClientOption {
	if strings.TrimSpace(inlineJSON) != "" {
		return option.WithCredentialsJSON([]byte(inlineJSON))
	}
	return option.WithCredentialsFile(path)
}

// NewSheetsLoader builds the API client. opts usually carry the credentials
// from CredentialsOption.
func NewSheetsLoader(ctx context.Context, sheetID, worksheet string, opts ...option.ClientOption) (*SheetsLoader, error) {
	if sheetID == "" || worksheet == "" {
		return nil, fmt.Errorf("sheet id and worksheet are required: %w", domain.ErrInvalidValue)
	}
	opts = append([]option.ClientOption{option.WithScopes(Scopes...)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetsLoader{sheetID: sheetID, worksheet: worksheet, svc: svc}, nil
}

func (l *SheetsLoader) Describe() string {
	return fmt.Sprintf("sheets:%s/%s", l.sheetID, l.worksheet)
}

// Load reads every value of the worksheet. The first row holds the headers.
func (l *SheetsLoader) Load(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := l.load(ctx)
	if err != nil {
		return nil, &LoadError{Source: l.Describe(), Err: err}
	}
	return ds, nil
}

func (l *SheetsLoader) load(ctx context.Context) (*dataset.Dataset, error) {
	ss, err := l.svc.Spreadsheets.Get(l.sheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapAPIError(err, domain.ErrSpreadsheetNotFound)
	}
	found := false
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == l.worksheet {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%q: %w", l.worksheet, domain.ErrWorksheetNotFound)
	}

	vr, err := l.svc.Spreadsheets.Values.Get(l.sheetID, quoteSheetName(l.worksheet)).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapAPIError(err, domain.ErrWorksheetNotFound)
	}
	if len(vr.Values) == 0 {
		return nil, domain.ErrNoData
	}
	return dataset.FromRows(stringify(vr.Values))
}

// quoteSheetName turns a worksheet title into an A1 range covering it.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func mapAPIError(err error, notFound error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return err
}
