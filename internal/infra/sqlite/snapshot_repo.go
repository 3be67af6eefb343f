/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
	"github.com/kentakayama/comedores-dashboard/internal/domain/service"
)

var _ service.SnapshotRepository = (*SnapshotRepository)(nil)

// SnapshotRepository handles dataset snapshot persistence.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a snapshot and returns the inserted id.
func (r *SnapshotRepository) Create(ctx context.Context, s *model.Snapshot) (int64, error) {
	const q = `
		INSERT INTO snapshots (source, row_count, payload, loaded_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q, s.Source, s.RowCount, s.Payload, s.LoadedAt)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.ID = id
	return id, nil
}

// FindLatest returns the most recently stored snapshot, or nil when there is
// none.
func (r *SnapshotRepository) FindLatest(ctx context.Context) (*model.Snapshot, error) {
	const q = `
		SELECT id, source, row_count, payload, loaded_at
		FROM snapshots
		ORDER BY id DESC
		LIMIT 1
	`
	var s model.Snapshot
	err := r.db.QueryRowContext(ctx, q).Scan(&s.ID, &s.Source, &s.RowCount, &s.Payload, &s.LoadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return &s, nil
}

// PruneKeepLatest deletes every snapshot but the newest keep and returns the
// number removed.
func (r *SnapshotRepository) PruneKeepLatest(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	const q = `
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)
	`
	res, err := r.db.ExecContext(ctx, q, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
