/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kentakayama/comedores-dashboard/internal/config"
	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
)

const (
	maxRequestBodyBytes = 1 << 20 // 1 MiB is far more than a hub entry needs.

	requestIDHeader = "X-Request-ID"

	contentTypeJSON     = "application/json; charset=utf-8"
	contentTypeHTML     = "text/html; charset=utf-8"
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeCSV      = "text/csv; charset=utf-8"
	contentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type handler struct {
	svc    *dashboard.Service
	cfg    *config.Config
	logger *zerolog.Logger
	now    func() time.Time
}

type responseSpec struct {
	status      int
	body        []byte
	contentType string
	// headers override defaultHeaders
	headers map[string]string
}

func newHandler(svc *dashboard.Service, cfg *config.Config, logger *zerolog.Logger) (*handler, error) {
	return &handler{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

type route struct {
	methods []string
	serve   func(w http.ResponseWriter, r *http.Request, tail string)
}

func (h *handler) routes(path string) (route, string, bool) {
	switch path {
	case "/healthz":
		return route{[]string{http.MethodGet}, h.health}, "", true
	case "/api/records":
		return route{[]string{http.MethodGet}, h.records}, "", true
	case "/api/filters":
		return route{[]string{http.MethodGet}, h.filters}, "", true
	case "/api/metrics":
		return route{[]string{http.MethodGet}, h.metrics}, "", true
	case "/api/variables":
		return route{[]string{http.MethodGet}, h.variables}, "", true
	case "/api/distribution":
		return route{[]string{http.MethodGet}, h.distribution}, "", true
	case "/api/crosstab":
		return route{[]string{http.MethodGet}, h.crosstab}, "", true
	case "/api/report":
		return route{[]string{http.MethodGet}, h.report}, "", true
	case "/api/refresh":
		return route{[]string{http.MethodPost}, h.refresh}, "", true
	case "/api/dashboards":
		return route{[]string{http.MethodGet, http.MethodPost}, h.dashboards}, "", true
	}
	for prefix, rt := range map[string]route{
		"/api/analysis/":   {[]string{http.MethodGet}, h.runAnalysis},
		"/charts/":         {[]string{http.MethodGet}, h.renderChart},
		"/export/":         {[]string{http.MethodGet}, h.download},
		"/api/dashboards/": {[]string{http.MethodGet, http.MethodDelete}, h.dashboardByID},
	} {
		if tail, ok := strings.CutPrefix(path, prefix); ok && tail != "" && !strings.Contains(tail, "/") {
			return rt, tail, true
		}
	}
	return route{}, "", false
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := h.now()
	reqID := r.Header.Get(requestIDHeader)
	if _, err := uuid.Parse(reqID); err != nil {
		reqID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, reqID)

	logger := h.logger.With().Str("request_id", reqID).Logger()
	r = r.WithContext(logger.WithContext(r.Context()))
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	rt, tail, ok := h.routes(r.URL.Path)
	switch {
	case !ok:
		h.writeError(rec, r, http.StatusNotFound, "not found")
	case !allowed(rt.methods, r.Method):
		rec.Header().Set("Allow", strings.Join(rt.methods, ", "))
		h.writeError(rec, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	default:
		rt.serve(rec, r, tail)
	}

	logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("elapsed", h.now().Sub(started)).
		Msg("request")
}

func allowed(methods []string, m string) bool {
	for _, a := range methods {
		if a == m {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed encoding response")
		h.writeResponse(w, r, responseSpec{status: http.StatusInternalServerError})
		return
	}
	h.writeResponse(w, r, responseSpec{
		status:      status,
		body:        body,
		contentType: contentTypeJSON,
	})
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, errorBody{Error: msg, RequestID: w.Header().Get(requestIDHeader)})
}

func (h *handler) writeResponse(w http.ResponseWriter, r *http.Request, spec responseSpec) {
	w.Header().Set("Server", "comedores-dashboard")

	if len(spec.body) > 0 {
		for k, v := range defaultHeaders {
			w.Header().Set(k, v)
		}
		for k, v := range spec.headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", spec.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(spec.body)))
		w.WriteHeader(spec.status)
		if _, err := w.Write(spec.body); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed writing response body")
		}
		return
	}

	w.WriteHeader(spec.status)
}

var defaultHeaders = map[string]string{
	"Cache-Control":           "no-store",
	"X-Content-Type-Options":  "nosniff",
	"Content-Security-Policy": "default-src 'none'",
	"Referrer-Policy":         "no-referrer",
}

// chartCSP lets the chart pages load the echarts bundle and run their
// inline initialisation script.
const chartCSP = "default-src 'none'; script-src 'unsafe-inline' https://go-echarts.github.io; style-src 'unsafe-inline'"
