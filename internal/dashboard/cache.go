/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dashboard

import (
	"context"
	"time"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
)

const loadKey = "load"

// Data returns the cached dataset while it is fresh and reloads it
// otherwise. Concurrent callers share a single load.
func (s *Service) Data(ctx context.Context) (*Result, error) {
	s.mu.RLock()
	cur, exp := s.current, s.expiresAt
	s.mu.RUnlock()
	if cur != nil && s.now().Before(exp) {
		return cur, nil
	}
	return s.reload(ctx)
}

// Refresh drops the cached dataset and loads it again.
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	s.expiresAt = time.Time{}
	s.mu.Unlock()
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) (*Result, error) {
	ch := s.group.DoChan(loadKey, func() (interface{}, error) {
		// the load outlives a caller that gives up early; others may wait on it
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
		defer cancel()
		return s.load(lctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	}
}

func (s *Service) load(ctx context.Context) (*Result, error) {
	started := s.now()
	ds, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", s.loader.Describe()).Msg("load failed")
		return s.fallback(ctx, err, started)
	}

	res := &Result{Dataset: ds, Source: s.loader.Describe(), LoadedAt: started}
	s.store(res, nil, started)
	s.logger.Info().
		Str("source", res.Source).
		Int("records", ds.Len()).
		Int("columns", len(ds.Columns)).
		Dur("elapsed", s.now().Sub(started)).
		Msg("dataset loaded")

	if err := s.saveSnapshot(ctx, res); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save snapshot")
	}
	return res, nil
}

// fallback serves the previous dataset after a failed load: the one in
// memory if any, the latest snapshot otherwise.
func (s *Service) fallback(ctx context.Context, loadErr error, tried time.Time) (*Result, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil {
		stale := *cur
		stale.Stale = true
		s.store(&stale, loadErr, tried)
		return &stale, nil
	}

	snap, err := s.latestSnapshot(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read snapshot")
	}
	if snap == nil {
		s.store(nil, loadErr, tried)
		return nil, loadErr
	}
	s.logger.Info().Time("loaded_at", snap.LoadedAt).Int("records", snap.Dataset.Len()).Msg("serving snapshot")
	s.store(snap, loadErr, tried)
	return snap, nil
}

// store records the outcome of a load attempt. A nil res keeps nothing
// cached so that the next call tries again.
func (s *Service) store(res *Result, loadErr error, tried time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = loadErr
	s.lastTry = tried
	if res == nil {
		s.expiresAt = time.Time{}
		return
	}
	s.current = res
	s.expiresAt = tried.Add(s.opts.TTL)
}

func (s *Service) saveSnapshot(ctx context.Context, res *Result) error {
	if s.snapshots == nil {
		return nil
	}
	payload, err := res.Dataset.Encode()
	if err != nil {
		return err
	}
	_, err = s.snapshots.Create(ctx, &model.Snapshot{
		Source:   res.Source,
		RowCount: res.Dataset.Len(),
		Payload:  payload,
		LoadedAt: res.LoadedAt.UTC(),
	})
	if err != nil {
		return err
	}
	removed, err := s.snapshots.PruneKeepLatest(ctx, s.opts.KeepSnapshots)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Debug().Int64("removed", removed).Msg("pruned snapshots")
	}
	return nil
}

func (s *Service) latestSnapshot(ctx context.Context) (*Result, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	snap, err := s.snapshots.FindLatest(ctx)
	if err != nil || snap == nil {
		return nil, err
	}
	ds, err := dataset.Decode(snap.Payload)
	if err != nil {
		return nil, err
	}
	return &Result{Dataset: ds, Source: snap.Source, LoadedAt: snap.LoadedAt, Stale: true}, nil
}

// Status is the state of the data pipeline as shown by the status command
// and the health endpoint. Connected is set when the last load reached the
// source; HasData when a dataset is being served, fresh or stale.
type Status struct {
	Source       string        `json:"source"`
	Connected    bool          `json:"connected"`
	HasData      bool          `json:"has_data"`
	Records      int           `json:"records"`
	Columns      int           `json:"columns"`
	LoadedAt     *time.Time    `json:"loaded_at,omitempty"`
	LastAttempt  *time.Time    `json:"last_attempt,omitempty"`
	Stale        bool          `json:"stale"`
	LastError    string        `json:"last_error,omitempty"`
	CacheTTL     time.Duration `json:"cache_ttl"`
	ConfigIssues []string      `json:"config_issues"`
}

// Status reports the last load without triggering one.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Source:       s.loader.Describe(),
		CacheTTL:     s.opts.TTL,
		ConfigIssues: append([]string{}, s.opts.ConfigIssues...),
	}
	if s.current != nil {
		loaded := s.current.LoadedAt
		st.LoadedAt = &loaded
		st.Records = s.current.Dataset.Len()
		st.Columns = len(s.current.Dataset.Columns)
		st.Stale = s.current.Stale
	}
	if !s.lastTry.IsZero() {
		tried := s.lastTry
		st.LastAttempt = &tried
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	st.HasData = s.current != nil
	st.Connected = st.HasData && !s.current.Stale && s.lastErr == nil
	return st
}
