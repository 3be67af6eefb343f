/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package dashboard owns the survey data as seen by every surface of the
// application: it caches the loaded dataset, keeps snapshots for when the
// source is unreachable and manages the visualization hub.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain/service"
	"github.com/kentakayama/comedores-dashboard/internal/infra/sqlite"
	"github.com/kentakayama/comedores-dashboard/internal/source"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultKeepSnapshots = 5
	DefaultLoadTimeout   = 60 * time.Second
)

// Options tune a Service. Zero values pick the defaults.
type Options struct {
	TTL           time.Duration
	KeepSnapshots int
	LoadTimeout   time.Duration
	// ConfigIssues are reported by Status as they are.
	ConfigIssues []string
	Logger       *zerolog.Logger
}

// Result is the dataset served to callers together with where it came from.
type Result struct {
	Dataset  *dataset.Dataset
	Source   string
	LoadedAt time.Time
	// Stale is set when the source failed and an earlier copy is served.
	Stale bool
}

type Service struct {
	loader source.Loader
	opts   Options
	logger *zerolog.Logger

	db        *sql.DB         // Database connection for snapshots and hub entries
	ctx       context.Context // Background context for database operations
	links     service.DashboardLinkRepository
	snapshots service.SnapshotRepository

	group singleflight.Group
	now   func() time.Time

	mu        sync.RWMutex
	current   *Result
	expiresAt time.Time
	lastErr   error
	lastTry   time.Time
}

func New(loader source.Loader, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.KeepSnapshots <= 0 {
		opts.KeepSnapshots = DefaultKeepSnapshots
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		loader: loader,
		opts:   opts,
		logger: logger,
		ctx:    context.Background(),
		now:    time.Now,
	}
}

// InitWithPath opens the state database (a file path or ":memory:").
// Without it the service still serves data but keeps no snapshots and has
// no hub.
func (s *Service) InitWithPath(dbPath string) error {
	db, err := sqlite.InitDB(s.ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = db
	s.links = sqlite.NewDashboardLinkRepository(db)
	s.snapshots = sqlite.NewSnapshotRepository(db)
	return nil
}

// Close closes the database connection.
func (s *Service) Close() error {
	if s.db != nil {
		return sqlite.CloseDB(s.db)
	}
	return nil
}

// Source describes the configured loader.
func (s *Service) Source() string {
	return s.loader.Describe()
}
