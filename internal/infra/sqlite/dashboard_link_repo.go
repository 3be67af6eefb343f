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

	"github.com/mattn/go-sqlite3"

	"github.com/kentakayama/comedores-dashboard/internal/domain"
	"github.com/kentakayama/comedores-dashboard/internal/domain/model"
	"github.com/kentakayama/comedores-dashboard/internal/domain/service"
)

var _ service.DashboardLinkRepository = (*DashboardLinkRepository)(nil)

// DashboardLinkRepository handles visualization hub persistence.
type DashboardLinkRepository struct {
	db *sql.DB
}

func NewDashboardLinkRepository(db *sql.DB) *DashboardLinkRepository {
	return &DashboardLinkRepository{db: db}
}

// Create inserts a hub entry with its tags and returns the inserted id.
func (r *DashboardLinkRepository) Create(ctx context.Context, l *model.DashboardLink) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO dashboard_links (title, description, url, active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, q, l.Title, l.Description, l.URL, l.Active, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert dashboard_link %q: %w", l.Title, domain.ErrConflict)
		}
		return 0, fmt.Errorf("insert dashboard_link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	const tq = `INSERT OR IGNORE INTO dashboard_link_tags (link_id, tag) VALUES (?, ?)`
	for _, tag := range l.Tags {
		if _, err := tx.ExecContext(ctx, tq, id, tag); err != nil {
			return 0, fmt.Errorf("insert dashboard_link_tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit dashboard_link: %w", err)
	}
	l.ID = id
	return id, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// FindByID returns a hub entry by ID, or nil when there is none.
func (r *DashboardLinkRepository) FindByID(ctx context.Context, id int64) (*model.DashboardLink, error) {
	const q = `
		SELECT id, title, description, url, active, created_at
		FROM dashboard_links
		WHERE id = ?
		LIMIT 1
	`
	return r.findOne(ctx, q, id)
}

// FindByTitle returns a hub entry by its title, or nil when there is none.
func (r *DashboardLinkRepository) FindByTitle(ctx context.Context, title string) (*model.DashboardLink, error) {
	const q = `
		SELECT id, title, description, url, active, created_at
		FROM dashboard_links
		WHERE title = ?
		LIMIT 1
	`
	return r.findOne(ctx, q, title)
}

func (r *DashboardLinkRepository) findOne(ctx context.Context, q string, arg any) (*model.DashboardLink, error) {
	row := r.db.QueryRowContext(ctx, q, arg)
	var l model.DashboardLink
	if err := row.Scan(&l.ID, &l.Title, &l.Description, &l.URL, &l.Active, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan dashboard_link: %w", err)
	}
	tags, err := r.tags(ctx, []int64{l.ID})
	if err != nil {
		return nil, err
	}
	l.Tags = tags[l.ID]
	return &l, nil
}

// ListActive returns the active hub entries in creation order.
func (r *DashboardLinkRepository) ListActive(ctx context.Context) ([]*model.DashboardLink, error) {
	const q = `
		SELECT id, title, description, url, active, created_at
		FROM dashboard_links
		WHERE active = 1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query dashboard_links: %w", err)
	}
	var links []*model.DashboardLink
	var ids []int64
	for rows.Next() {
		var l model.DashboardLink
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.URL, &l.Active, &l.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan dashboard_link: %w", err)
		}
		links = append(links, &l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// release the connection before querying the tags
	rows.Close()

	tags, err := r.tags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		l.Tags = tags[l.ID]
	}
	return links, nil
}

func (r *DashboardLinkRepository) tags(ctx context.Context, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	const q = `SELECT link_id, tag FROM dashboard_link_tags ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query dashboard_link_tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("scan dashboard_link_tag: %w", err)
		}
		if wanted[id] {
			out[id] = append(out[id], tag)
		}
	}
	return out, rows.Err()
}

// SetActive shows or hides a hub entry.
func (r *DashboardLinkRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const q = `
		UPDATE dashboard_links
		SET active = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, q, active, id)
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of hub entries, active or not.
func (r *DashboardLinkRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dashboard_links`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dashboard_links: %w", err)
	}
	return n, nil
}

// Delete removes a hub entry; its tags go with it.
func (r *DashboardLinkRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dashboard_links WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
