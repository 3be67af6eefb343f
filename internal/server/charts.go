/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/kentakayama/comedores-dashboard/internal/analysis"
	"github.com/kentakayama/comedores-dashboard/internal/chart"
)

// renderChart renders one of the chart pages over the filtered dataset.
func (h *handler) renderChart(w http.ResponseWriter, r *http.Request, name string) {
	var render func(buf *bytes.Buffer, v *view) error
	switch name {
	case "tipo":
		render = func(buf *bytes.Buffer, v *view) error {
			res, err := analysis.TipoComedor(v.filtered)
			if err != nil {
				return err
			}
			return chart.Pie(buf, "🏪 Distribución por Tipo de Comedor", res.Counts(), h.cfg.Analysis.MaxCategoriesPie)
		}
	case "temporal":
		render = func(buf *bytes.Buffer, v *view) error {
			res, err := analysis.Temporal(v.filtered)
			if err != nil {
				return err
			}
			return chart.Trend(buf, "📅 Evolución Temporal de Vinculación al Programa", res.Years)
		}
	case "crosstab":
		q, err := h.crosstabQuery(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		render = func(buf *bytes.Buffer, v *view) error {
			res, err := q.run(v.filtered)
			if err != nil {
				return err
			}
			return chart.Heatmap(buf, fmt.Sprintf("%s vs %s", res.Var1, res.Var2), res)
		}
	case "distribucion":
		q, err := h.distributionQuery(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		render = func(buf *bytes.Buffer, v *view) error {
			res, err := q.run(v.filtered)
			if err != nil {
				return err
			}
			return chart.Bars(buf, res.Column, res.Counts)
		}
	default:
		kind, err := analysis.ParseOptionKind(name)
		if err != nil {
			h.writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown chart %q", name))
			return
		}
		render = func(buf *bytes.Buffer, v *view) error {
			res, err := analysis.MultiOption(v.filtered, kind)
			if err != nil {
				return err
			}
			return chart.Bars(buf, kind.Title(), res.Counts())
		}
	}

	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, v); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeResponse(w, r, responseSpec{
		status:      http.StatusOK,
		body:        buf.Bytes(),
		contentType: contentTypeHTML,
		headers:     map[string]string{"Content-Security-Policy": chartCSP},
	})
}
