/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kentakayama/comedores-dashboard/internal/analysis"
	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/source"
)

// statusOf maps a service error to the HTTP status reported to clients.
func statusOf(err error) int {
	var colErr *analysis.ColumnNotFoundError
	var loadErr *source.LoadError
	switch {
	case errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, dashboard.ErrMissingField),
		errors.Is(err, dashboard.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrDuplicateTitle),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &colErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoData),
		errors.As(err, &loadErr),
		errors.Is(err, domain.ErrWorksheetNotFound),
		errors.Is(err, domain.ErrSpreadsheetNotFound),
		errors.Is(err, dashboard.ErrNotInitialized):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := zerolog.Ctx(r.Context())
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		msg = http.StatusText(status)
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	h.writeError(w, r, status, msg)
}
