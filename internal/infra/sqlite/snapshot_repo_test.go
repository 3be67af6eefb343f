/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
)

func TestSnapshot_FindLatest_Empty(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	defer CloseDB(db)

	got, err := NewSnapshotRepository(db).FindLatest(ctx)
	if err != nil {
		t.Fatalf("FindLatest error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSnapshot_CreatePrune(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	defer CloseDB(db)

	repo := NewSnapshotRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 7; i++ {
		s := &model.Snapshot{
			Source:   "xlsx:test.xlsx/Hoja 1",
			RowCount: i + 1,
			Payload:  []byte(fmt.Sprintf("payload-%d", i)),
			LoadedAt: now.Add(time.Duration(i) * time.Minute),
		}
		if _, err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	removed, err := repo.PruneKeepLatest(ctx, 5)
	if err != nil {
		t.Fatalf("PruneKeepLatest error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	latest, err := repo.FindLatest(ctx)
	if err != nil || latest == nil {
		t.Fatalf("FindLatest error: %v", err)
	}
	if latest.RowCount != 7 || !bytes.Equal(latest.Payload, []byte("payload-6")) {
		t.Fatalf("unexpected latest snapshot: %+v", latest)
	}
	if !latest.LoadedAt.Equal(now.Add(6 * time.Minute)) {
		t.Fatalf("loaded_at mismatch: %v", latest.LoadedAt)
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 snapshots left, got %d", n)
	}
}
