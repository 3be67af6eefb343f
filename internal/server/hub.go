/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
)

type addDashboardRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
}

type dashboardsResponse struct {
	Stats      *dashboard.HubStats    `json:"stats"`
	Dashboards []*model.DashboardLink `json:"dashboards"`
}

func (h *handler) dashboards(w http.ResponseWriter, r *http.Request, _ string) {
	if r.Method == http.MethodPost {
		h.addDashboard(w, r)
		return
	}

	q := r.URL.Query()
	order, err := dashboard.ParseSortOrder(q.Get("order"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidValue, err))
		return
	}
	links, err := h.svc.ListDashboards(r.Context(), dashboard.ListOptions{Tags: q["tag"], Order: order})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.svc.HubStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if links == nil {
		links = []*model.DashboardLink{}
	}
	h.writeJSON(w, r, http.StatusOK, dashboardsResponse{Stats: stats, Dashboards: links})
}

func (h *handler) addDashboard(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		h.writeError(w, r, http.StatusUnsupportedMediaType, "This endpoint only accepts Content-Type: application/json")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "failed to read request body")
		return
	}
	var req addDashboardRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "failed to parse request body")
		return
	}
	l, err := h.svc.AddDashboard(r.Context(), req.Title, req.Description, req.URL, req.Tags)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, l)
}

func (h *handler) dashboardByID(w http.ResponseWriter, r *http.Request, tail string) {
	id, err := strconv.ParseInt(tail, 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, fmt.Errorf("%w: dashboard id %q", domain.ErrInvalidValue, tail))
		return
	}
	if r.Method == http.MethodDelete {
		if err := h.svc.RemoveDashboard(r.Context(), id); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	l, err := h.svc.Dashboard(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, l)
}
