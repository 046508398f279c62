// This file defines repository methods for board columns. Positions
// are unique per board on a best-effort basis: single moves are
// last-write-wins, while bulk reorders rewrite every position in one
// transaction.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/utils"
)

// ErrColumnNotFound is returned when a column cannot be found in the DB.
var ErrColumnNotFound = errors.New("column not found")

// ColumnRepo encapsulates all database queries related to board columns.
type ColumnRepo struct {
	db *sql.DB
}

// NewColumnRepo constructs a ColumnRepo with the provided DB handle.
func NewColumnRepo(db *sql.DB) *ColumnRepo {
	return &ColumnRepo{db: db}
}

const columnColumns = "id, board_id, title, color, position, wip_limit, is_collapsed, settings, created_at, updated_at"

func scanColumn(sc interface {
	Scan(dest ...any) error
}) (*model.Column, error) {
	var (
		c        model.Column
		settings string
	)
	if err := sc.Scan(&c.ID, &c.BoardID, &c.Title, &c.Color, &c.Position, &c.WIPLimit,
		&c.IsCollapsed, &settings, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(settings), &c.Settings); err != nil {
		return nil, fmt.Errorf("decode column settings: %w", err)
	}
	return &c, nil
}

// FindByID fetches a column by its ID. It returns ErrColumnNotFound
// if no row is found.
func (r *ColumnRepo) FindByID(ctx context.Context, id string) (*model.Column, error) {
	const q = "SELECT " + columnColumns + " FROM board_columns WHERE id = ?"
	c, err := scanColumn(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrColumnNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByBoard returns all columns of a board ordered by position.
func (r *ColumnRepo) ListByBoard(ctx context.Context, boardID string) ([]*model.Column, error) {
	const q = "SELECT " + columnColumns + ` FROM board_columns
	           WHERE board_id = ? ORDER BY position, created_at`
	rows, err := r.db.QueryContext(ctx, q, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a new column at the end of its board. A fresh UUID
// is assigned when the ID field is empty; afterwards the row is
// re-read so callers receive the canonical record.
func (r *ColumnRepo) Create(ctx context.Context, c *model.Column) error {
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("create column: encode settings: %w", err)
	}

	var maxPos sql.NullInt64
	if err := r.db.QueryRowContext(ctx,
		`SELECT MAX(position) FROM board_columns WHERE board_id = ?`, c.BoardID).Scan(&maxPos); err != nil {
		return fmt.Errorf("create column: %w", err)
	}
	c.Position = int(maxPos.Int64) + 1

	const qInsert = `INSERT INTO board_columns (id, board_id, title, color, position, wip_limit, is_collapsed, settings)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, qInsert,
		c.ID, c.BoardID, c.Title, c.Color, c.Position, c.WIPLimit, c.IsCollapsed,
		string(settings)); err != nil {
		return fmt.Errorf("create column: %w", err)
	}
	got, err := r.FindByID(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("create column: re-read: %w", err)
	}
	*c = *got
	return nil
}

// Update applies a partial update: only non-nil fields of the payload
// reach the UPDATE statement. A payload with no fields set is a no-op
// returning nil.
func (r *ColumnRepo) Update(ctx context.Context, id string, in model.ColumnUpdate) error {
	var (
		sets []string
		args []any
	)
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *in.Color)
	}
	if in.WIPLimit != nil {
		sets = append(sets, "wip_limit = ?")
		args = append(args, *in.WIPLimit)
	}
	if in.IsCollapsed != nil {
		sets = append(sets, "is_collapsed = ?")
		args = append(args, *in.IsCollapsed)
	}
	if in.Settings != nil {
		enc, err := json.Marshal(in.Settings)
		if err != nil {
			return fmt.Errorf("update column: encode settings: %w", err)
		}
		sets = append(sets, "settings = ?")
		args = append(args, string(enc))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	q := "UPDATE board_columns SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrColumnNotFound
	}
	return nil
}

// Delete removes a column together with its tasks and their
// assignments, inside one transaction.
func (r *ColumnRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete column: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM board_columns WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrColumnNotFound
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM tasks WHERE column_id = ?)`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE column_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM board_columns WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// UpdatePositions rewrites the positions of several columns of one
// board in a single transaction, all-or-nothing, so readers never
// observe a transient duplicate or missing ordering key.
func (r *ColumnRepo) UpdatePositions(ctx context.Context, boardID string, ids []string, positions []int) (err error) {
	if len(ids) != len(positions) {
		return fmt.Errorf("update column positions: %w: ids/positions length mismatch", ErrConflict)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update column positions: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	const q = `UPDATE board_columns SET position = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND board_id = ?`
	for i, id := range ids {
		var res sql.Result
		if res, err = tx.ExecContext(ctx, q, positions[i], id, boardID); err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			err = fmt.Errorf("update column positions: %w: %s", ErrColumnNotFound, id)
			return err
		}
	}
	return nil
}

// ExistsByTitle reports whether the board already has a column with
// the exact title. excludeID skips one column so updates do not
// conflict with the row being updated.
func (r *ColumnRepo) ExistsByTitle(ctx context.Context, boardID, title, excludeID string) (bool, error) {
	q := `SELECT COUNT(*) FROM board_columns WHERE board_id = ? AND title = ?`
	args := []any{boardID, title}
	if excludeID != "" {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("column exists by title: %w", err)
	}
	return n > 0, nil
}
