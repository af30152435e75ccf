package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tphummel/lab_templates/internal/models"
)

// ErrOrderMismatch is returned by ReorderSteps when the ids given are not
// exactly the lab's current steps.
var ErrOrderMismatch = errors.New("ids must list every step of the lab exactly once")

const stepColumns = `id, lab_id, step_order, title, description, setup_command,
	expected_exit_code, retry_count, timeout_seconds, continue_on_failure`

// CreateSteps inserts reqs as new steps of labID in one transaction. Requests
// without a stepOrder are appended after the lab's current last step, in
// request order. Returns sql.ErrNoRows if the lab does not exist.
func (d *DB) CreateSteps(ctx context.Context, labID string, reqs []models.CreateSetupStepRequest, newID func() string) ([]models.SetupStep, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM labs WHERE id = ?`, labID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, sql.ErrNoRows
	}

	var maxOrder int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(step_order), 0) FROM setup_steps WHERE lab_id = ?`, labID).Scan(&maxOrder); err != nil {
		return nil, err
	}

	created := make([]models.SetupStep, 0, len(reqs))
	for _, req := range reqs {
		s := req.NewStep(newID(), labID, maxOrder+1)
		if s.StepOrder > maxOrder {
			maxOrder = s.StepOrder
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO setup_steps (`+stepColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.LabID, s.StepOrder, s.Title, s.Description, s.SetupCommand,
			s.ExpectedExitCode, s.RetryCount, s.TimeoutSeconds, s.ContinueOnFailure,
		); err != nil {
			return nil, fmt.Errorf("insert step %q: %w", s.Title, err)
		}
		created = append(created, s)
	}
	return created, tx.Commit()
}

// GetStep returns the setup step with the given ID, or sql.ErrNoRows.
func (d *DB) GetStep(ctx context.Context, id string) (*models.SetupStep, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM setup_steps WHERE id = ?`, id)
	return scanStep(row)
}

// ListSteps returns the steps of a lab ordered by step_order. Steps sharing
// an order come back in insertion order.
func (d *DB) ListSteps(ctx context.Context, labID string) ([]*models.SetupStep, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+stepColumns+` FROM setup_steps
		WHERE lab_id = ? ORDER BY step_order, rowid`, labID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []*models.SetupStep
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// UpdateStep replaces all mutable fields for the step with s.ID. The owning
// lab never changes. Returns sql.ErrNoRows if no such step exists.
func (d *DB) UpdateStep(ctx context.Context, s *models.SetupStep) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE setup_steps
		SET step_order=?, title=?, description=?, setup_command=?,
		    expected_exit_code=?, retry_count=?, timeout_seconds=?, continue_on_failure=?
		WHERE id=?`,
		s.StepOrder, s.Title, s.Description, s.SetupCommand,
		s.ExpectedExitCode, s.RetryCount, s.TimeoutSeconds, s.ContinueOnFailure,
		s.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteStep removes the step with the given ID.
// Returns sql.ErrNoRows if no such step exists.
func (d *DB) DeleteStep(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM setup_steps WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteSteps removes every step whose id is in ids and reports how many
// rows went away. Unknown ids are ignored.
func (d *DB) DeleteSteps(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM setup_steps WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// ReorderSteps renumbers the steps of labID to 1..n following ids, in one
// transaction, and returns them in their new order. ids must name every step
// of the lab exactly once. Returns sql.ErrNoRows if the lab does not exist.
func (d *DB) ReorderSteps(ctx context.Context, labID string, ids []string) ([]*models.SetupStep, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM labs WHERE id = ?`, labID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, sql.ErrNoRows
	}

	current := make(map[string]bool)
	rows, err := tx.QueryContext(ctx, `SELECT id FROM setup_steps WHERE lab_id = ?`, labID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		current[id] = false
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) != len(current) {
		return nil, ErrOrderMismatch
	}
	for _, id := range ids {
		seen, ok := current[id]
		if !ok || seen {
			return nil, ErrOrderMismatch
		}
		current[id] = true
	}

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE setup_steps SET step_order = ? WHERE id = ?`, i+1, id); err != nil {
			return nil, err
		}
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT `+stepColumns+` FROM setup_steps
		WHERE lab_id = ? ORDER BY step_order, rowid`, labID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []*models.SetupStep
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return steps, tx.Commit()
}

// CountSteps returns the total number of setup steps across all labs.
func (d *DB) CountSteps() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM setup_steps`).Scan(&n)
	return n, err
}

func scanStep(s scanner) (*models.SetupStep, error) {
	var st models.SetupStep
	if err := s.Scan(
		&st.ID, &st.LabID, &st.StepOrder, &st.Title, &st.Description, &st.SetupCommand,
		&st.ExpectedExitCode, &st.RetryCount, &st.TimeoutSeconds, &st.ContinueOnFailure,
	); err != nil {
		return nil, err
	}
	return &st, nil
}
