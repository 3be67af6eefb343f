/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kentakayama/comedores-dashboard/internal/analysis"
	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

// envelope wraps every data response with the provenance of the dataset.
type envelope struct {
	Source   string          `json:"source"`
	LoadedAt time.Time       `json:"loaded_at"`
	Stale    bool            `json:"stale"`
	Total    int             `json:"total_records"`
	Filtered int             `json:"filtered_records"`
	Filters  dataset.Filters `json:"filters"`
	Warning  string          `json:"warning,omitempty"`
	Data     any             `json:"data"`
}

// view is the dataset of a request: the cached survey narrowed by the
// sidebar filters found in the query string.
type view struct {
	env      envelope
	all      *dataset.Dataset
	filtered *dataset.Dataset
}

func (h *handler) view(r *http.Request) (*view, error) {
	res, err := h.svc.Data(r.Context())
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	filters := dataset.FiltersFromKeys(q.Get)
	filtered := res.Dataset.Filter(filters)
	v := &view{
		all:      res.Dataset,
		filtered: filtered,
		env: envelope{
			Source:   res.Source,
			LoadedAt: res.LoadedAt,
			Stale:    res.Stale,
			Total:    res.Dataset.Len(),
			Filtered: filtered.Len(),
			Filters:  filters,
		},
	}
	if least := h.cfg.Analysis.MinRecordsAnalysis; filtered.Len() < least {
		v.env.Warning = fmt.Sprintf("Solo %d registros coinciden con los filtros; se recomiendan al menos %d para el análisis", filtered.Len(), least)
	}
	return v, nil
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, v *view, data any) {
	env := v.env
	env.Data = data
	h.writeJSON(w, r, http.StatusOK, env)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request, _ string) {
	h.writeJSON(w, r, http.StatusOK, h.svc.Status())
}

type recordsData struct {
	Columns []string          `json:"columns"`
	Rows    [][]dataset.Value `json:"rows"`
}

// records returns the filtered rows projected on the col parameters, or on
// the default columns when none are given. col=* selects every column.
func (h *handler) records(w http.ResponseWriter, r *http.Request, _ string) {
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cols := r.URL.Query()["col"]
	switch {
	case len(cols) == 1 && cols[0] == "*":
		cols = v.filtered.Columns
	case len(cols) == 0:
		if cols = v.filtered.DefaultColumns(); len(cols) == 0 {
			cols = v.filtered.Columns
		}
	}
	sel, err := v.filtered.Select(cols)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidValue, err))
		return
	}
	rows := sel.Rows
	if limit, err := intParam(r, "limit", 0); err != nil {
		h.fail(w, r, err)
		return
	} else if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	h.respond(w, r, v, recordsData{Columns: sel.Columns, Rows: rows})
}

func (h *handler) filters(w http.ResponseWriter, r *http.Request, _ string) {
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	opts, _ := v.all.FilterOptions(v.env.Filters)
	h.respond(w, r, v, opts)
}

func (h *handler) metrics(w http.ResponseWriter, r *http.Request, _ string) {
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, v, analysis.Metrics(v.filtered))
}

func (h *handler) variables(w http.ResponseWriter, r *http.Request, _ string) {
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vars := analysis.AvailableVariables(v.all)
	if vars == nil {
		vars = []analysis.ResolvedVariable{}
	}
	h.respond(w, r, v, vars)
}

func (h *handler) runAnalysis(w http.ResponseWriter, r *http.Request, name string) {
	run, ok := analyses[name]
	if !ok {
		kind, err := analysis.ParseOptionKind(name)
		if err != nil {
			h.writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown analysis %q", name))
			return
		}
		run = func(ds *dataset.Dataset) (any, error) { return analysis.MultiOption(ds, kind) }
	}
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := run(v.filtered)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, v, out)
}

var analyses = map[string]func(*dataset.Dataset) (any, error){
	"tipo":      func(ds *dataset.Dataset) (any, error) { return analysis.TipoComedor(ds) },
	"geografia": func(ds *dataset.Dataset) (any, error) { return analysis.Geographic(ds) },
	"temporal":  func(ds *dataset.Dataset) (any, error) { return analysis.Temporal(ds) },
	"resumen":   func(ds *dataset.Dataset) (any, error) { return analysis.Summary(ds) },
	"calidad":   func(ds *dataset.Dataset) (any, error) { return analysis.Quality(ds) },
}

func (h *handler) distribution(w http.ResponseWriter, r *http.Request, _ string) {
	q, err := h.distributionQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := q.run(v.filtered)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, v, res)
}

// distributionQuery is a validated distribution request. Parameters are
// checked before the data is loaded so that a bad request reports 400 even
// when the source is down.
type distributionQuery struct {
	variable      analysis.CrossVariable
	maxCategories int
}

func (h *handler) distributionQuery(r *http.Request) (distributionQuery, error) {
	key := r.URL.Query().Get("var")
	if key == "" {
		return distributionQuery{}, fmt.Errorf("var is required: %w", domain.ErrInvalidValue)
	}
	variable, err := analysis.LookupVariable(key)
	if err != nil {
		return distributionQuery{}, err
	}
	maxCategories, err := intParam(r, "max", h.cfg.Analysis.MaxCategoriesPie)
	if err != nil {
		return distributionQuery{}, err
	}
	return distributionQuery{variable: variable, maxCategories: maxCategories}, nil
}

func (q distributionQuery) run(ds *dataset.Dataset) (*analysis.DistributionResult, error) {
	col, err := q.variable.Resolve(ds)
	if err != nil {
		return nil, err
	}
	return analysis.Distribution(ds, col, q.maxCategories)
}

func (h *handler) crosstab(w http.ResponseWriter, r *http.Request, _ string) {
	q, err := h.crosstabQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := q.run(v.filtered)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, v, res)
}

// crosstabQuery is a validated crosstab request.
type crosstabQuery struct {
	var1, var2 analysis.CrossVariable
	topN       int
}

func (h *handler) crosstabQuery(r *http.Request) (crosstabQuery, error) {
	q := r.URL.Query()
	key1, key2 := q.Get("var1"), q.Get("var2")
	if key1 == "" || key2 == "" {
		return crosstabQuery{}, fmt.Errorf("var1 and var2 are required: %w", domain.ErrInvalidValue)
	}
	if key1 == key2 {
		return crosstabQuery{}, fmt.Errorf("var1 and var2 must differ: %w", domain.ErrInvalidValue)
	}
	var1, err := analysis.LookupVariable(key1)
	if err != nil {
		return crosstabQuery{}, err
	}
	var2, err := analysis.LookupVariable(key2)
	if err != nil {
		return crosstabQuery{}, err
	}
	topN, err := intParam(r, "top", h.cfg.Analysis.CrosstabTopN)
	if err != nil {
		return crosstabQuery{}, err
	}
	return crosstabQuery{var1: var1, var2: var2, topN: topN}, nil
}

func (q crosstabQuery) run(ds *dataset.Dataset) (*analysis.CrosstabResult, error) {
	col1, err := q.var1.Resolve(ds)
	if err != nil {
		return nil, err
	}
	col2, err := q.var2.Resolve(ds)
	if err != nil {
		return nil, err
	}
	return analysis.Crosstab(ds, col1, col2, q.topN)
}

func (h *handler) report(w http.ResponseWriter, r *http.Request, _ string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = analysis.FormatMarkdown
	}
	v, err := h.view(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := analysis.Report(v.filtered, format)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ct := contentTypeMarkdown
	if format == analysis.FormatJSON {
		ct = contentTypeJSON
	}
	h.writeResponse(w, r, responseSpec{status: http.StatusOK, body: []byte(out), contentType: ct})
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request, _ string) {
	if _, err := h.svc.Refresh(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.svc.Status())
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s=%q: %w", name, s, domain.ErrInvalidValue)
	}
	return n, nil
}
