/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/kentakayama/comedores-dashboard/internal/analysis"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/export"
)

// download serves the filtered rows as a download. "frecuencias" is a
// workbook with the frequency table of every cross-analysis variable.
func (h *handler) download(w http.ResponseWriter, r *http.Request, kind string) {
	var ext, ct string
	switch kind {
	case "csv":
		ext, ct = "csv", contentTypeCSV
	case "xlsx", "frecuencias":
		ext, ct = "xlsx", contentTypeXLSX
	default:
		h.writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown export %q", kind))
		return
	}

	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if v.filtered.Empty() {
		h.fail(w, r, domain.ErrNoData)
		return
	}

	cols := r.URL.Query()["col"]
	var buf bytes.Buffer
	switch kind {
	case "csv":
		err = export.WriteCSV(&buf, v.filtered, cols)
	case "xlsx":
		err = export.WriteXLSX(&buf, v.filtered, cols, "Comedores")
	case "frecuencias":
		err = h.writeFrequencies(&buf, v)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
		}
		h.fail(w, r, err)
		return
	}

	prefix := h.cfg.Export.Prefix
	if kind == "frecuencias" {
		prefix = "comedores_frecuencias"
	}
	name := export.FilenameWithLayout(prefix, ext, h.cfg.Export.DateFormat, h.now())
	h.writeResponse(w, r, responseSpec{
		status:      http.StatusOK,
		body:        buf.Bytes(),
		contentType: ct,
		headers: map[string]string{
			"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
		},
	})
}

func (h *handler) writeFrequencies(buf *bytes.Buffer, v *view) error {
	var tables []export.Table
	for _, rv := range analysis.AvailableVariables(v.filtered) {
		res, err := analysis.Distribution(v.filtered, rv.Column, h.cfg.Analysis.MaxCategoriesPie)
		if err != nil {
			if errors.Is(err, domain.ErrNoData) {
				continue
			}
			return err
		}
		tables = append(tables, export.Table{Name: rv.Key, Rows: res.Table})
	}
	if len(tables) == 0 {
		return domain.ErrNoData
	}
	return export.WriteReportXLSX(buf, tables)
}
