// This file defines repository methods for tasks. A task carries
// denormalized project_id and board_id columns for query convenience;
// the invariant that column_id always references a column of the
// task's own board is enforced here on create and move, never assumed.
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

// ErrTaskNotFound is returned when a task cannot be found in the DB.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepo encapsulates all database queries related to tasks and
// their assignee relation.
type TaskRepo struct {
	db *sql.DB
}

// NewTaskRepo constructs a TaskRepo with the provided DB handle.
func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// TaskFilter narrows List queries. Zero values mean "no filter" for
// the respective field.
type TaskFilter struct {
	ProjectID       string
	BoardID         string
	ColumnID        string
	Status          string
	Priority        string
	AssigneeID      uint64 // restrict to tasks assigned to this user
	Search          string // substring match on the title
	IncludeArchived bool
}

const taskColumns = "id, project_id, board_id, column_id, title, description, status, priority, tags, position, estimated_hours, actual_hours, deadline, created_by, is_archived, archived_at, created_at, updated_at"

// taskSortable whitelists the sort fields accepted by List.
var taskSortable = map[string]string{
	"title":      "title",
	"position":   "position",
	"priority":   "priority",
	"status":     "status",
	"deadline":   "deadline",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func scanTask(sc interface {
	Scan(dest ...any) error
}) (*model.Task, error) {
	var (
		t          model.Task
		tags       string
		deadline   sql.NullTime
		archivedAt sql.NullTime
	)
	if err := sc.Scan(&t.ID, &t.ProjectID, &t.BoardID, &t.ColumnID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &tags, &t.Position, &t.EstimatedHours, &t.ActualHours,
		&deadline, &t.CreatedBy, &t.IsArchived, &archivedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decode task tags: %w", err)
	}
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	if archivedAt.Valid {
		a := archivedAt.Time
		t.ArchivedAt = &a
	}
	return &t, nil
}

// FindByID fetches a task by its ID including its assignee list. It
// returns ErrTaskNotFound if no row is found.
func (r *TaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	const q = "SELECT " + taskColumns + " FROM tasks WHERE id = ?"
	t, err := scanTask(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	assignees, err := r.ListAssignees(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Assignees = assignees
	return t, nil
}

// ListByColumn returns all active tasks of a column ordered by
// position. Assignees are not loaded here; list views only need the
// task rows.
func (r *TaskRepo) ListByColumn(ctx context.Context, columnID string) ([]*model.Task, error) {
	const q = "SELECT " + taskColumns + ` FROM tasks
	           WHERE column_id = ? AND is_archived = 0 ORDER BY position, created_at`
	rows, err := r.db.QueryContext(ctx, q, columnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// List returns tasks matching the filter plus the total number of
// matches before pagination. Assignee filtering goes through the
// task_assignees join table.
func (r *TaskRepo) List(ctx context.Context, f TaskFilter, sort Sort, page Page) ([]*model.Task, int, error) {
	where := " WHERE 1=1"
	var args []any
	if f.ProjectID != "" {
		where += " AND project_id = ?"
		args = append(args, f.ProjectID)
	}
	if f.BoardID != "" {
		where += " AND board_id = ?"
		args = append(args, f.BoardID)
	}
	if f.ColumnID != "" {
		where += " AND column_id = ?"
		args = append(args, f.ColumnID)
	}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where += " AND priority = ?"
		args = append(args, f.Priority)
	}
	if f.AssigneeID != 0 {
		where += " AND id IN (SELECT task_id FROM task_assignees WHERE user_id = ?)"
		args = append(args, f.AssigneeID)
	}
	if f.Search != "" {
		where += " AND title LIKE ?"
		args = append(args, "%"+f.Search+"%")
	}
	if !f.IncludeArchived {
		where += " AND is_archived = 0"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	q := "SELECT " + taskColumns + " FROM tasks" + where +
		sort.orderBy(taskSortable, "position, created_at") + page.limitOffset()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Create inserts a new task at the end of its column, together with
// its initial assignee rows, in one transaction. The column must
// belong to the task's board; ErrConflict is returned otherwise. The
// denormalized project_id is taken from the board row. A fresh UUID
// is assigned when the ID field is empty.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) (err error) {
	if t.ID == "" {
		t.ID = utils.NewID()
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("create task: encode tags: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create task: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	// The column has to sit on the task's board, and the board row
	// supplies the denormalized project id.
	var colBoardID string
	if err = tx.QueryRowContext(ctx,
		`SELECT board_id FROM board_columns WHERE id = ?`, t.ColumnID).Scan(&colBoardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrColumnNotFound
		}
		return err
	}
	if colBoardID != t.BoardID {
		return fmt.Errorf("create task: %w: column belongs to another board", ErrConflict)
	}
	if err = tx.QueryRowContext(ctx,
		`SELECT project_id FROM boards WHERE id = ?`, t.BoardID).Scan(&t.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBoardNotFound
		}
		return err
	}

	var maxPos sql.NullInt64
	if err = tx.QueryRowContext(ctx,
		`SELECT MAX(position) FROM tasks WHERE column_id = ?`, t.ColumnID).Scan(&maxPos); err != nil {
		return err
	}
	t.Position = int(maxPos.Int64) + 1

	const qInsert = `INSERT INTO tasks (id, project_id, board_id, column_id, title, description,
	                 status, priority, tags, position, estimated_hours, actual_hours, deadline, created_by)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, qInsert,
		t.ID, t.ProjectID, t.BoardID, t.ColumnID, t.Title, t.Description,
		t.Status, t.Priority, string(tags), t.Position,
		t.EstimatedHours, t.ActualHours, t.Deadline, t.CreatedBy); err != nil {
		return err
	}

	const qAssign = `INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)`
	for _, uid := range t.Assignees {
		if _, err = tx.ExecContext(ctx, qAssign, t.ID, uid); err != nil {
			return err
		}
	}
	return nil
}

// Update applies a partial update: only non-nil fields of the payload
// reach the UPDATE statement. A payload with no fields set is a no-op
// returning nil.
func (r *TaskRepo) Update(ctx context.Context, id string, in model.TaskUpdate) error {
	var (
		sets []string
		args []any
	)
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *in.Description)
	}
	if in.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *in.Status)
	}
	if in.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *in.Priority)
	}
	if in.Tags != nil {
		enc, err := json.Marshal(*in.Tags)
		if err != nil {
			return fmt.Errorf("update task: encode tags: %w", err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, string(enc))
	}
	if in.EstimatedHours != nil {
		sets = append(sets, "estimated_hours = ?")
		args = append(args, *in.EstimatedHours)
	}
	if in.ActualHours != nil {
		sets = append(sets, "actual_hours = ?")
		args = append(args, *in.ActualHours)
	}
	if in.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, *in.Deadline)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	q := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Move places a task into another column of the same board, at the
// end of that column. The target column's board is checked against
// the task's board inside the transaction, keeping the denormalized
// column/board pair consistent.
func (r *TaskRepo) Move(ctx context.Context, id, toColumnID string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("move task: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var boardID string
	if err = tx.QueryRowContext(ctx, `SELECT board_id FROM tasks WHERE id = ?`, id).Scan(&boardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTaskNotFound
		}
		return err
	}
	var colBoardID string
	if err = tx.QueryRowContext(ctx,
		`SELECT board_id FROM board_columns WHERE id = ?`, toColumnID).Scan(&colBoardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrColumnNotFound
		}
		return err
	}
	if colBoardID != boardID {
		return fmt.Errorf("move task: %w: column belongs to another board", ErrConflict)
	}

	var maxPos sql.NullInt64
	if err = tx.QueryRowContext(ctx,
		`SELECT MAX(position) FROM tasks WHERE column_id = ?`, toColumnID).Scan(&maxPos); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE tasks SET column_id = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		toColumnID, int(maxPos.Int64)+1, id); err != nil {
		return err
	}
	return nil
}

// UpdatePositions rewrites the positions of several tasks of one
// column in a single transaction, all-or-nothing.
func (r *TaskRepo) UpdatePositions(ctx context.Context, columnID string, ids []string, positions []int) (err error) {
	if len(ids) != len(positions) {
		return fmt.Errorf("update task positions: %w: ids/positions length mismatch", ErrConflict)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update task positions: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	const q = `UPDATE tasks SET position = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND column_id = ?`
	for i, id := range ids {
		var res sql.Result
		if res, err = tx.ExecContext(ctx, q, positions[i], id, columnID); err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			err = fmt.Errorf("update task positions: %w: %s", ErrTaskNotFound, id)
			return err
		}
	}
	return nil
}

// Delete removes a task and its assignee rows in one transaction.
func (r *TaskRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete task: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrTaskNotFound
		return err
	}
	return nil
}

// SetArchived flips the archive flag and timestamp.
func (r *TaskRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	var q string
	if archived {
		q = `UPDATE tasks SET is_archived = 1, archived_at = CURRENT_TIMESTAMP,
		     updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	} else {
		q = `UPDATE tasks SET is_archived = 0, archived_at = NULL,
		     updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	}
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("archive task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// AddAssignee attaches a user to a task. Adding an existing assignee
// is not an error.
func (r *TaskRepo) AddAssignee(ctx context.Context, taskID string, userID uint64) error {
	assigned, err := r.IsAssignee(ctx, taskID, userID)
	if err != nil {
		return err
	}
	if assigned {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)`, taskID, userID)
	if err != nil {
		return fmt.Errorf("add assignee: %w", err)
	}
	return nil
}

// RemoveAssignee detaches a user from a task.
func (r *TaskRepo) RemoveAssignee(ctx context.Context, taskID string, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return fmt.Errorf("remove assignee: %w", err)
	}
	return nil
}

// IsAssignee reports whether the user is listed as an assignee of the
// task. The task permission resolver uses this for move rights.
func (r *TaskRepo) IsAssignee(ctx context.Context, taskID string, userID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_assignees WHERE task_id = ? AND user_id = ?`,
		taskID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("is assignee: %w", err)
	}
	return n > 0, nil
}

// ListAssignees returns the user ids assigned to a task.
func (r *TaskRepo) ListAssignees(ctx context.Context, taskID string) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM task_assignees WHERE task_id = ? ORDER BY user_id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var uid uint64
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

// CountActiveByColumn returns the number of non-archived tasks in a
// column. Services use it to enforce WIP limits.
func (r *TaskRepo) CountActiveByColumn(ctx context.Context, columnID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE column_id = ? AND is_archived = 0`, columnID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks by column: %w", err)
	}
	return n, nil
}
