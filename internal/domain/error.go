package domain

import "errors"

var (
	ErrNotFound            = errors.New("item not found")
	ErrConflict            = errors.New("item already exists")
	ErrNoData              = errors.New("no data available")
	ErrInvalidValue        = errors.New("invalid value")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrWorksheetNotFound   = errors.New("worksheet not found")
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
)
