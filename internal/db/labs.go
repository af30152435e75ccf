package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tphummel/lab_templates/internal/models"
)

const labColumns = `id, name, description, base_image, estimated_time, is_active, created_at, updated_at`

// CreateLab inserts a new lab record.
func (d *DB) CreateLab(ctx context.Context, l *models.Lab) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO labs (`+labColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Description, l.BaseImage, l.EstimatedTime, l.IsActive,
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	return err
}

// GetLab returns the lab with the given ID, or sql.ErrNoRows if not found.
func (d *DB) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+labColumns+` FROM labs WHERE id = ?`, id)
	return scanLab(row)
}

// ListLabs returns all labs, newest first, optionally filtered by status.
func (d *DB) ListLabs(ctx context.Context, active *bool) ([]*models.Lab, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if active != nil {
		rows, err = d.conn.QueryContext(ctx, `
			SELECT `+labColumns+` FROM labs WHERE is_active = ? ORDER BY created_at DESC`, *active)
	} else {
		rows, err = d.conn.QueryContext(ctx, `
			SELECT `+labColumns+` FROM labs ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labs []*models.Lab
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, err
		}
		labs = append(labs, l)
	}
	return labs, rows.Err()
}

// UpdateLab replaces the editable fields of the lab with l.ID.
// Returns sql.ErrNoRows if no such lab exists.
func (d *DB) UpdateLab(ctx context.Context, l *models.Lab) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE labs
		SET name=?, description=?, base_image=?, estimated_time=?, updated_at=?
		WHERE id=?`,
		l.Name, l.Description, l.BaseImage, l.EstimatedTime, formatTime(l.UpdatedAt), l.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ToggleLab flips is_active for the lab and returns the updated record.
func (d *DB) ToggleLab(ctx context.Context, id string, now time.Time) (*models.Lab, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE labs SET is_active = 1 - is_active, updated_at = ? WHERE id = ?`,
		formatTime(now), id)
	if err != nil {
		return nil, err
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	l, err := scanLab(tx.QueryRowContext(ctx, `SELECT `+labColumns+` FROM labs WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return l, tx.Commit()
}

// DeleteLab removes the lab and all of its setup steps in one transaction.
// Returns sql.ErrNoRows if no such lab exists.
func (d *DB) DeleteLab(ctx context.Context, id string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM setup_steps WHERE lab_id = ?`, id); err != nil {
		return fmt.Errorf("delete steps: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM labs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CountLabsByStatus returns the number of labs keyed by "active"/"inactive".
func (d *DB) CountLabsByStatus() (map[string]int, error) {
	rows, err := d.conn.Query(`SELECT is_active, COUNT(*) FROM labs GROUP BY is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{"active": 0, "inactive": 0}
	for rows.Next() {
		var active bool
		var n int
		if err := rows.Scan(&active, &n); err != nil {
			return nil, err
		}
		if active {
			counts["active"] = n
		} else {
			counts["inactive"] = n
		}
	}
	return counts, rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanLab(s scanner) (*models.Lab, error) {
	var l models.Lab
	var createdAt, updatedAt string
	if err := s.Scan(
		&l.ID, &l.Name, &l.Description, &l.BaseImage, &l.EstimatedTime, &l.IsActive,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if l.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
