// This file defines repository methods for boards. A board belongs to
// exactly one project and is always created together with the four
// default columns, inside one transaction. Deleting a board cascades
// explicitly to its columns and tasks. No business logic or permission
// checks live here; services sequence those around these calls.
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

// ErrBoardNotFound is returned when a board cannot be found in the DB.
var ErrBoardNotFound = errors.New("board not found")

// BoardRepo encapsulates all database queries related to boards.
type BoardRepo struct {
	db *sql.DB
}

// NewBoardRepo constructs a BoardRepo with the provided DB handle.
func NewBoardRepo(db *sql.DB) *BoardRepo {
	return &BoardRepo{db: db}
}

// BoardFilter narrows List queries. Zero values mean "no filter" for
// the respective field.
type BoardFilter struct {
	ProjectID       string // restrict to one project
	Visibility      string // restrict to one visibility value
	Search          string // substring match on the name
	IncludeArchived bool   // include archived boards
}

const boardColumns = "id, project_id, name, description, color, visibility, settings, position, created_by, is_archived, archived_at, created_at, updated_at"

// boardSortable whitelists the sort fields accepted by List.
var boardSortable = map[string]string{
	"name":       "name",
	"position":   "position",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func scanBoard(sc interface {
	Scan(dest ...any) error
}) (*model.Board, error) {
	var (
		b          model.Board
		settings   string
		archivedAt sql.NullTime
	)
	if err := sc.Scan(&b.ID, &b.ProjectID, &b.Name, &b.Description, &b.Color, &b.Visibility,
		&settings, &b.Position, &b.CreatedBy, &b.IsArchived, &archivedAt,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(settings), &b.Settings); err != nil {
		return nil, fmt.Errorf("decode board settings: %w", err)
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		b.ArchivedAt = &t
	}
	return &b, nil
}

// FindByID fetches a board by its ID. It returns ErrBoardNotFound if
// no row is found.
func (r *BoardRepo) FindByID(ctx context.Context, id string) (*model.Board, error) {
	const q = "SELECT " + boardColumns + " FROM boards WHERE id = ?"
	b, err := scanBoard(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBoardNotFound
		}
		return nil, err
	}
	return b, nil
}

// ListByProject returns all boards of a project ordered by position.
func (r *BoardRepo) ListByProject(ctx context.Context, projectID string, includeArchived bool) ([]*model.Board, error) {
	q := "SELECT " + boardColumns + " FROM boards WHERE project_id = ?"
	if !includeArchived {
		q += " AND is_archived = 0"
	}
	q += " ORDER BY position, created_at"
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// List returns boards matching the filter plus the total number of
// matches before pagination. The count query shares the WHERE clause
// with the page query so both always agree.
func (r *BoardRepo) List(ctx context.Context, f BoardFilter, sort Sort, page Page) ([]*model.Board, int, error) {
	where := " WHERE 1=1"
	var args []any
	if f.ProjectID != "" {
		where += " AND project_id = ?"
		args = append(args, f.ProjectID)
	}
	if f.Visibility != "" {
		where += " AND visibility = ?"
		args = append(args, f.Visibility)
	}
	if f.Search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+f.Search+"%")
	}
	if !f.IncludeArchived {
		where += " AND is_archived = 0"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM boards"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count boards: %w", err)
	}

	q := "SELECT " + boardColumns + " FROM boards" + where +
		sort.orderBy(boardSortable, "position, created_at") + page.limitOffset()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var out []*model.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// Create inserts a new board together with its four default columns
// in one transaction. The board's position is placed after the
// project's current last board. A fresh UUID is assigned when the ID
// field is empty; afterwards the row is re-read so callers receive the
// canonical record.
func (r *BoardRepo) Create(ctx context.Context, b *model.Board) (err error) {
	if b.ID == "" {
		b.ID = utils.NewID()
	}
	settings, err := json.Marshal(b.Settings)
	if err != nil {
		return fmt.Errorf("create board: encode settings: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create board: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var maxPos sql.NullInt64
	if err = tx.QueryRowContext(ctx,
		`SELECT MAX(position) FROM boards WHERE project_id = ?`, b.ProjectID).Scan(&maxPos); err != nil {
		return err
	}
	b.Position = int(maxPos.Int64) + 1

	const qInsert = `INSERT INTO boards (id, project_id, name, description, color, visibility, settings, position, created_by)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, qInsert,
		b.ID, b.ProjectID, b.Name, b.Description, b.Color, b.Visibility,
		string(settings), b.Position, b.CreatedBy); err != nil {
		return err
	}

	// Every board starts with the same four columns at positions 1-4.
	colSettings, err := json.Marshal(model.ColumnSettings{})
	if err != nil {
		return err
	}
	const qColumn = `INSERT INTO board_columns (id, board_id, title, position, settings)
	                 VALUES (?, ?, ?, ?, ?)`
	for i, title := range model.DefaultColumnTitles {
		if _, err = tx.ExecContext(ctx, qColumn,
			utils.NewID(), b.ID, title, i+1, string(colSettings)); err != nil {
			return err
		}
	}
	return nil
}

// Update applies a partial update: only non-nil fields of the payload
// reach the UPDATE statement. A payload with no fields set is a no-op
// returning nil. updated_at is always bumped on a real write.
func (r *BoardRepo) Update(ctx context.Context, id string, in model.BoardUpdate) error {
	var (
		sets []string
		args []any
	)
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *in.Description)
	}
	if in.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *in.Color)
	}
	if in.Visibility != nil {
		sets = append(sets, "visibility = ?")
		args = append(args, *in.Visibility)
	}
	if in.Settings != nil {
		enc, err := json.Marshal(in.Settings)
		if err != nil {
			return fmt.Errorf("update board: encode settings: %w", err)
		}
		sets = append(sets, "settings = ?")
		args = append(args, string(enc))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	q := "UPDATE boards SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// SetArchived flips the archive flag and timestamp.
func (r *BoardRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	var q string
	if archived {
		q = `UPDATE boards SET is_archived = 1, archived_at = CURRENT_TIMESTAMP,
		     updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	} else {
		q = `UPDATE boards SET is_archived = 0, archived_at = NULL,
		     updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	}
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("archive board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// Delete removes a board and all dependent records (task assignments,
// tasks and columns), child tables first, inside one transaction so a
// partial failure cannot orphan children.
func (r *BoardRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete board: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrBoardNotFound
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM tasks WHERE board_id = ?)`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE board_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM board_columns WHERE board_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// UpdatePosition moves a single board to a new position among its
// siblings. Concurrent calls are last-write-wins; only the bulk
// variant is transactional.
func (r *BoardRepo) UpdatePosition(ctx context.Context, id string, position int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE boards SET position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		position, id)
	if err != nil {
		return fmt.Errorf("update board position: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// UpdatePositions rewrites the positions of several boards of one
// project in a single transaction, all-or-nothing, so readers never
// observe a half-applied ordering. ids and positions are parallel
// slices; the validator guarantees they are consistent before this is
// called.
func (r *BoardRepo) UpdatePositions(ctx context.Context, projectID string, ids []string, positions []int) (err error) {
	if len(ids) != len(positions) {
		return fmt.Errorf("update board positions: %w: ids/positions length mismatch", ErrConflict)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update board positions: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	const q = `UPDATE boards SET position = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND project_id = ?`
	for i, id := range ids {
		var res sql.Result
		if res, err = tx.ExecContext(ctx, q, positions[i], id, projectID); err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			err = fmt.Errorf("update board positions: %w: %s", ErrBoardNotFound, id)
			return err
		}
	}
	return nil
}

// ExistsByName reports whether the project already has a board with
// the exact name. excludeID skips one board, so updates do not
// conflict with the row being updated. The check is case-sensitive and
// exists to produce a friendly conflict error before any DB
// unique-constraint could fire.
func (r *BoardRepo) ExistsByName(ctx context.Context, projectID, name, excludeID string) (bool, error) {
	q := `SELECT COUNT(*) FROM boards WHERE project_id = ? AND name = ?`
	args := []any{projectID, name}
	if excludeID != "" {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("board exists by name: %w", err)
	}
	return n > 0, nil
}
