/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
	"github.com/kentakayama/comedores-dashboard/internal/util"
	"github.com/kentakayama/comedores-dashboard/resources"
)

// SortOrder selects how ListDashboards orders the hub.
type SortOrder string

const (
	SortRecent SortOrder = "recent"
	SortOldest SortOrder = "oldest"
	SortTitle  SortOrder = "title"
)

// ParseSortOrder accepts the order names and the labels the hub shows.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recent", "más reciente":
		return SortRecent, nil
	case "oldest", "más antiguo":
		return SortOldest, nil
	case "title", "alpha", "alfabético":
		return SortTitle, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

type seedFile struct {
	Dashboards []seedEntry `yaml:"dashboards"`
}

type seedEntry struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	URL         string    `yaml:"url"`
	Created     time.Time `yaml:"created"`
	Tags        []string  `yaml:"tags"`
}

// ParseSeed reads hub entries from YAML.
func ParseSeed(data []byte) ([]*model.DashboardLink, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse dashboards seed: %w", err)
	}
	links := make([]*model.DashboardLink, 0, len(f.Dashboards))
	for _, e := range f.Dashboards {
		links = append(links, &model.DashboardLink{
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
			Tags:        e.Tags,
			Active:      true,
			CreatedAt:   e.Created.UTC(),
		})
	}
	return links, nil
}

// EnsureDefaultDashboards seeds the hub with the embedded entries when it
// is empty.
func (s *Service) EnsureDefaultDashboards() error {
	return s.EnsureDashboards(resources.DefaultDashboardsYAML)
}

// EnsureDashboards seeds the hub from a YAML document when it is empty.
func (s *Service) EnsureDashboards(seed []byte) error {
	if s.links == nil {
		return ErrNotInitialized
	}
	n, err := s.links.Count(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to count dashboards: %w", err)
	}
	if n > 0 {
		// OK, already seeded
		return nil
	}
	links, err := ParseSeed(seed)
	if err != nil {
		return err
	}
	for _, l := range links {
		if err := validateLink(l); err != nil {
			return fmt.Errorf("seed %q: %w", l.Title, err)
		}
		id, err := s.links.Create(s.ctx, l)
		if err != nil {
			return fmt.Errorf("failed to create default dashboard: %w", err)
		}
		s.logger.Info().Int64("id", id).Str("title", l.Title).Msg("created default dashboard")
	}
	return nil
}

// AddDashboard validates and stores a new hub entry. Title, description and
// an http(s) URL are required; tags are trimmed and deduplicated.
func (s *Service) AddDashboard(ctx context.Context, title, description, rawURL string, tags []string) (*model.DashboardLink, error) {
	if s.links == nil {
		return nil, ErrNotInitialized
	}
	uniq := util.NewSet[string]()
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			uniq.Add(t)
		}
	}
	l := &model.DashboardLink{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		URL:         strings.TrimSpace(rawURL),
		Tags:        uniq.Values(),
		Active:      true,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	if err := validateLink(l); err != nil {
		return nil, err
	}

	existing, err := s.links.FindByTitle(ctx, l.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%q: %w", l.Title, ErrDuplicateTitle)
	}
	// a concurrent add of the same title loses at the unique index
	if _, err := s.links.Create(ctx, l); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%q: %w", l.Title, ErrDuplicateTitle)
		}
		return nil, err
	}
	s.logger.Info().Int64("id", l.ID).Str("title", l.Title).Msg("dashboard added")
	return l, nil
}

// SplitTags splits the comma separated tag list typed in the hub form.
func SplitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func validateLink(l *model.DashboardLink) error {
	switch {
	case l.Title == "":
		return fmt.Errorf("title: %w", ErrMissingField)
	case l.Description == "":
		return fmt.Errorf("description: %w", ErrMissingField)
	case l.URL == "":
		return fmt.Errorf("url: %w", ErrMissingField)
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, l.URL)
	}
	return nil
}

// ListOptions narrow and order ListDashboards.
type ListOptions struct {
	// Tags keeps the entries carrying any of them. Empty keeps all.
	Tags  []string
	Order SortOrder
}

// ListDashboards returns the active hub entries.
func (s *Service) ListDashboards(ctx context.Context, opts ListOptions) ([]*model.DashboardLink, error) {
	if s.links == nil {
		return nil, ErrNotInitialized
	}
	links, err := s.links.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(opts.Tags) > 0 {
		kept := links[:0]
		for _, l := range links {
			if l.HasAnyTag(opts.Tags) {
				kept = append(kept, l)
			}
		}
		links = kept
	}
	switch opts.Order {
	case SortOldest:
		sort.SliceStable(links, func(i, j int) bool { return links[i].CreatedAt.Before(links[j].CreatedAt) })
	case SortTitle:
		sort.SliceStable(links, func(i, j int) bool { return links[i].Title < links[j].Title })
	default:
		sort.SliceStable(links, func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) })
	}
	return links, nil
}

// SetDashboardActive shows or hides a hub entry.
func (s *Service) SetDashboardActive(ctx context.Context, id int64, active bool) error {
	if s.links == nil {
		return ErrNotInitialized
	}
	return s.links.SetActive(ctx, id, active)
}

// Dashboard returns a hub entry by ID, hidden or not.
func (s *Service) Dashboard(ctx context.Context, id int64) (*model.DashboardLink, error) {
	if s.links == nil {
		return nil, ErrNotInitialized
	}
	l, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("dashboard %d: %w", id, domain.ErrNotFound)
	}
	return l, nil
}

// RemoveDashboard deletes a hub entry and its tags.
func (s *Service) RemoveDashboard(ctx context.Context, id int64) error {
	if s.links == nil {
		return ErrNotInitialized
	}
	if err := s.links.Delete(ctx, id); err != nil {
		return fmt.Errorf("dashboard %d: %w", id, err)
	}
	s.logger.Info().Int64("id", id).Msg("dashboard removed")
	return nil
}

// HubStats counts the hub entries.
type HubStats struct {
	Total  int      `json:"total"`
	Active int      `json:"active"`
	Tags   []string `json:"tags"`
}

func (s *Service) HubStats(ctx context.Context) (*HubStats, error) {
	if s.links == nil {
		return nil, ErrNotInitialized
	}
	total, err := s.links.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.links.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	tags := util.NewSet[string]()
	for _, l := range active {
		for _, t := range l.Tags {
			tags.Add(t)
		}
	}
	values := tags.Values()
	sort.Strings(values)
	return &HubStats{Total: total, Active: len(active), Tags: values}, nil
}
