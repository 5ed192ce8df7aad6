package trace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Action is one recorded traversal step.
type Action struct {
	Seq    int
	Action string
	Module string
	Group  string
}

// BuildRecord is a finished build to be recorded.
type BuildRecord struct {
	ID           string
	SnapshotHash string
	Diagnostics  int
	Actions      []Action
}

// BuildSummary describes one recorded build.
type BuildSummary struct {
	ID           string
	CreatedAt    string
	SnapshotHash string
	Diagnostics  int
	ActionCount  int
}

// RecordBuild persists a build and its action stream in one transaction.
// Writes are idempotent: recording the same build id twice is a no-op, so
// retries never duplicate actions.
func (s *Store) RecordBuild(ctx context.Context, rec *BuildRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record build: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO builds (id, snapshot_hash, diagnostics)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.SnapshotHash, rec.Diagnostics); err != nil {
		return fmt.Errorf("record build: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO actions (build_id, seq, action, module, group_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(build_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("record build: prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range rec.Actions {
		if _, err := stmt.ExecContext(ctx, rec.ID, a.Seq, a.Action, a.Module, a.Group); err != nil {
			return fmt.Errorf("record build: action %d: %w", a.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record build: commit: %w", err)
	}
	return nil
}

const buildColumns = `
	SELECT b.id, b.created_at, b.snapshot_hash, b.diagnostics,
	       (SELECT COUNT(*) FROM actions a WHERE a.build_id = b.id)
	FROM builds b
`

// ListBuilds returns every recorded build, oldest first.
func (s *Store) ListBuilds(ctx context.Context) ([]BuildSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		buildColumns+`ORDER BY b.created_at ASC, b.id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []BuildSummary
	for rows.Next() {
		var b BuildSummary
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.SnapshotHash, &b.Diagnostics, &b.ActionCount); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	if builds == nil {
		builds = []BuildSummary{}
	}
	return builds, nil
}

// Build returns the summary of one recorded build, or nil if unknown.
func (s *Store) Build(ctx context.Context, id string) (*BuildSummary, error) {
	row := s.db.QueryRowContext(ctx, buildColumns+`WHERE b.id = ?`, id)
	var b BuildSummary
	err := row.Scan(&b.ID, &b.CreatedAt, &b.SnapshotHash, &b.Diagnostics, &b.ActionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	return &b, nil
}

// ReplayActions returns the action stream of a build in sequence order.
func (s *Store) ReplayActions(ctx context.Context, buildID string) ([]Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, action, module, group_name
		FROM actions
		WHERE build_id = ?
		ORDER BY seq ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.Seq, &a.Action, &a.Module, &a.Group); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	if actions == nil {
		actions = []Action{}
	}
	return actions, nil
}
