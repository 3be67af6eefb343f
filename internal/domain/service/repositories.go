/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package service

import (
	"context"

	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
)

// DashboardLinkRepository defines the interface for hub entry persistence.
type DashboardLinkRepository interface {
	Create(ctx context.Context, l *model.DashboardLink) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.DashboardLink, error)
	FindByTitle(ctx context.Context, title string) (*model.DashboardLink, error)
	ListActive(ctx context.Context) ([]*model.DashboardLink, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

// SnapshotRepository defines the interface for dataset snapshot persistence.
type SnapshotRepository interface {
	Create(ctx context.Context, s *model.Snapshot) (int64, error)
	FindLatest(ctx context.Context) (*model.Snapshot, error)
	PruneKeepLatest(ctx context.Context, keep int) (int64, error)
}
