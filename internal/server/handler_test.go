/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kentakayama/comedores-dashboard/internal/config"
	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

const (
	colAcciones = "¿El comedor realiza otras acciones aparte de la preparación y entrega de raciones?"
	colTemas    = "TEMAS O ACTIVIDADES QUE SE HAN EJECUTADO ANTERIORMENTE"
)

type stubLoader struct {
	err error
}

func (l *stubLoader) Load(ctx context.Context) (*dataset.Dataset, error) {
	if l.err != nil {
		return nil, l.err
	}
	return dataset.FromRows([][]string{
		{
			dataset.ColTipoComedor, dataset.ColNombreComedor, dataset.ColBarrio, dataset.ColComuna,
			dataset.ColNodo, dataset.ColNicho, dataset.ColAnioVinculo, dataset.ColNecesidades,
			colAcciones, colTemas,
		},
		{"Comunitario", "A", "Robledo", "7", "1", "1", "2020", "Alimentos, Menaje", "Si", "Huerta; Reciclaje"},
		{"Comunitario", "B", "Robledo", "7", "1", "2", "2021", "Alimentos", "SI", "Huerta"},
		{"Solidario", "C", "Belén", "16", "2", "1", "2021", "Alimentos, Infraestructura", "No", ""},
		{"Comunitario", "E", "Castilla", "5", "3", "3", "2022", "None", "no", "Arte"},
		{"Escolar", "D", "Belén", "16", "2", "2", "2022", "Menaje", "Sí", "Huerta"},
		{"Solidario", "F", "Robledo", "7", "1", "3", "2023", "Alimentos", "Si", "Huerta"},
	})
}

func (l *stubLoader) Describe() string { return "stub" }

func newTestHandler(t *testing.T, loader *stubLoader) http.Handler {
	t.Helper()
	cfg := config.NewConfig()
	svc := dashboard.New(loader, dashboard.Options{TTL: time.Minute})
	require.Nil(t, svc.InitWithPath(":memory:"))
	t.Cleanup(func() { svc.Close() })
	require.Nil(t, svc.EnsureDefaultDashboards())

	srv, err := New(cfg, svc)
	require.Nil(t, err)
	srv.handler.now = func() time.Time { return time.Date(2025, 1, 7, 15, 30, 0, 0, time.UTC) }
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Source   string          `json:"source"`
	Stale    bool            `json:"stale"`
	Total    int             `json:"total_records"`
	Filtered int             `json:"filtered_records"`
	Warning  string          `json:"warning"`
	Data     json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env testEnvelope
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandler_HeadersAndRequestID(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.Nil(t, err)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	// a well-formed incoming id is echoed back
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	id := uuid.NewString()
	req.Header.Set("X-Request-ID", id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}

func TestHandler_NotFoundAndMethod(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/analysis/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/charts/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/export/pdf", "").Code)

	rec := do(t, h, http.MethodPost, "/api/metrics", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/refresh", "").Code)
}

func TestHandler_RecordsWithFilters(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	env := decodeEnvelope(t, do(t, h, http.MethodGet, "/api/records?barrio=Robledo&comuna=7&col=NOMBRE+DEL+COMEDOR", ""))
	assert.Equal(t, "stub", env.Source)
	assert.Equal(t, 6, env.Total)
	assert.Equal(t, 3, env.Filtered)
	assert.Contains(t, env.Warning, "Solo 3 registros")

	var data struct {
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}
	require.Nil(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []string{dataset.ColNombreComedor}, data.Columns)
	assert.Equal(t, [][]string{{"A"}, {"B"}, {"F"}}, data.Rows)

	// default columns and a limit
	env = decodeEnvelope(t, do(t, h, http.MethodGet, "/api/records?limit=2", ""))
	var limited struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	require.Nil(t, json.Unmarshal(env.Data, &limited))
	assert.Len(t, limited.Rows, 2)
	assert.Equal(t, []string{
		dataset.ColTipoComedor, dataset.ColNombreComedor, dataset.ColBarrio,
		dataset.ColComuna, dataset.ColNodo, dataset.ColNicho,
	}, limited.Columns)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/records?col=missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/records?limit=x", "").Code)
}

func TestHandler_Filters(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	env := decodeEnvelope(t, do(t, h, http.MethodGet, "/api/filters?barrio=Belén", ""))
	var opts []dataset.FilterOption
	require.Nil(t, json.Unmarshal(env.Data, &opts))
	require.Len(t, opts, 5)
	assert.Equal(t, "Belén", opts[1].Selected)
	assert.Equal(t, []string{"Todas", "16"}, opts[2].Options)
}

func TestHandler_Analyses(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	for _, name := range []string{"tipo", "geografia", "temporal", "resumen", "calidad", "necesidades"} {
		rec := do(t, h, http.MethodGet, "/api/analysis/"+name, "")
		assert.Equal(t, http.StatusOK, rec.Code, name)
	}

	env := decodeEnvelope(t, do(t, h, http.MethodGet, "/api/analysis/temporal", ""))
	var temporal struct {
		StartYear int    `json:"start_year"`
		Trend     string `json:"trend"`
	}
	require.Nil(t, json.Unmarshal(env.Data, &temporal))
	assert.Equal(t, 2020, temporal.StartYear)
	assert.NotEmpty(t, temporal.Trend)

	// the question is not in the sheet
	rec := do(t, h, http.MethodGet, "/api/analysis/problematicas", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// filters that match nothing leave no data
	rec = do(t, h, http.MethodGet, "/api/analysis/tipo?barrio=Nowhere", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_Metrics(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	env := decodeEnvelope(t, do(t, h, http.MethodGet, "/api/metrics?comuna=16", ""))
	var m struct {
		TotalKitchens int `json:"total_kitchens"`
	}
	require.Nil(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, 2, m.TotalKitchens)
}

func TestHandler_DistributionAndCrosstab(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	env := decodeEnvelope(t, do(t, h, http.MethodGet, "/api/variables", ""))
	var vars []struct {
		Key string `json:"key"`
	}
	require.Nil(t, json.Unmarshal(env.Data, &vars))
	require.Len(t, vars, 2)

	env = decodeEnvelope(t, do(t, h, http.MethodGet, "/api/distribution?var=acciones_aparte", ""))
	var dist struct {
		Total int `json:"total"`
		Table []struct {
			Category string `json:"category"`
			Count    int    `json:"count"`
		} `json:"table"`
	}
	require.Nil(t, json.Unmarshal(env.Data, &dist))
	assert.Equal(t, 6, dist.Total)
	assert.Equal(t, "Sí", dist.Table[0].Category)
	assert.Equal(t, 4, dist.Table[0].Count)

	rec := do(t, h, http.MethodGet, "/api/crosstab?var1=acciones_aparte&var2=temas_ejecutados", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/distribution", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/distribution?var=unknown", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/distribution?var=acciones_aparte&max=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/crosstab?var1=acciones_aparte&var2=acciones_aparte", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodGet, "/api/crosstab?var1=acciones_aparte&var2=comercial", "").Code)
}

func TestHandler_Report(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	rec := do(t, h, http.MethodGet, "/api/report", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeMarkdown, rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodGet, "/api/report?format=json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/report?format=pdf", "").Code)
}

func TestHandler_Charts(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	for _, target := range []string{
		"/charts/tipo",
		"/charts/necesidades",
		"/charts/temporal",
		"/charts/crosstab?var1=acciones_aparte&var2=temas_ejecutados",
		"/charts/distribucion?var=temas_ejecutados",
	} {
		rec := do(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target+": "+rec.Body.String())
		assert.Equal(t, contentTypeHTML, rec.Header().Get("Content-Type"))
		assert.Equal(t, chartCSP, rec.Header().Get("Content-Security-Policy"))
		assert.Contains(t, rec.Body.String(), "echarts")
	}
}

func TestHandler_Export(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	rec := do(t, h, http.MethodGet, "/export/csv?barrio=Belén", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=comedores_filtrados_20250107_153000.csv`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)

	rec = do(t, h, http.MethodGet, "/export/xlsx?col=BARRIO", "")
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.Nil(t, err)
	defer f.Close()
	rows, err := f.GetRows("Comedores")
	require.Nil(t, err)
	assert.Equal(t, []string{"BARRIO"}, rows[0])
	assert.Len(t, rows, 7)

	rec = do(t, h, http.MethodGet, "/export/frecuencias", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "comedores_frecuencias_")

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/export/csv?barrio=Nowhere", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/export/csv?col=missing", "").Code)
}

func TestHandler_Dashboards(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	rec := do(t, h, http.MethodGet, "/api/dashboards?tag=Actividades&order=title", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Stats struct {
			Total int `json:"total"`
		} `json:"stats"`
		Dashboards []struct {
			Title string `json:"title"`
		} `json:"dashboards"`
	}
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 4, list.Stats.Total)
	assert.Len(t, list.Dashboards, 2)

	rec = do(t, h, http.MethodPost, "/api/dashboards", `{"title":"Nodos","description":"Mapa de nodos","url":"https://example.org/nodos","tags":["Nodos"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/dashboards", `{"title":"Nodos","description":"otra","url":"https://example.org/x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/dashboards", `{"title":"X","description":"d","url":"nota url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/dashboards", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/dashboards", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/dashboards?order=random", "").Code)
}

func TestHandler_DashboardByID(t *testing.T) {
	h := newTestHandler(t, &stubLoader{})

	rec := do(t, h, http.MethodPost, "/api/dashboards", `{"title":"Nodos","description":"Mapa de nodos","url":"https://example.org/nodos"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/api/dashboards/%d", created.ID)

	rec = do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Nodos"`)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/dashboards/abc", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, path, "").Code)
}

func TestHandler_SourceDown(t *testing.T) {
	h := newTestHandler(t, &stubLoader{err: domain.ErrSpreadsheetNotFound})

	rec := do(t, h, http.MethodGet, "/api/metrics", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body errorBody
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body.RequestID)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/refresh", "").Code)

	// bad parameters are rejected before the source is consulted
	for _, target := range []string{
		"/api/distribution?var=unknown",
		"/api/crosstab?var1=acciones_aparte&var2=unknown",
		"/charts/distribucion?var=unknown",
		"/charts/crosstab?var1=acciones_aparte",
	} {
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, target, "").Code, target)
	}
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/distribution?var=acciones_aparte", "").Code)

	// the hub does not depend on the sheet
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/dashboards", "").Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusOf(domain.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusOf(fmt.Errorf("insert: %w", domain.ErrConflict)))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(dashboard.ErrNotInitialized))
	assert.Equal(t, http.StatusInternalServerError, statusOf(assert.AnError))
}
