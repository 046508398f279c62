// This file defines repository methods for projects and project
// membership. A project is the top-level container: it owns boards,
// which own columns, which own tasks. Membership is a many-to-many
// relation between projects and users carrying a per-project role;
// the owner needs no membership row.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/utils"
)

// ErrProjectNotFound is returned when a project cannot be found in the DB.
var ErrProjectNotFound = errors.New("project not found")

// ProjectRepo encapsulates all database queries related to projects
// and their memberships. It depends on a sql.DB connection which is
// configured at startup and injected here.
type ProjectRepo struct {
	db *sql.DB
}

// NewProjectRepo constructs a ProjectRepo with the provided DB handle.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

const projectColumns = "id, name, description, color, icon, owner_id, is_archived, archived_at, created_at, updated_at"

func scanProject(sc interface {
	Scan(dest ...any) error
}) (*model.Project, error) {
	var (
		p          model.Project
		archivedAt sql.NullTime
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.Icon, &p.OwnerID,
		&p.IsArchived, &archivedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		p.ArchivedAt = &t
	}
	return &p, nil
}

// Create inserts a new project. A fresh UUID is assigned when the ID
// field is empty. After the insert the row is re-read so callers
// receive the canonical record including DB-assigned timestamps.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = utils.NewID()
	}
	const qInsert = `INSERT INTO projects (id, name, description, color, icon, owner_id)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, qInsert,
		p.ID, p.Name, p.Description, p.Color, p.Icon, p.OwnerID); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	got, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("create project: re-read: %w", err)
	}
	*p = *got
	return nil
}

// GetByID fetches a project by its ID. It returns ErrProjectNotFound
// if no row is found.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	const q = "SELECT " + projectColumns + " FROM projects WHERE id = ?"
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListForUser returns all projects the user owns or is a member of,
// ordered by creation time. Archived projects are included; callers
// filter if needed.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID uint64) ([]*model.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects
	           WHERE owner_id = ?
	              OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)
	           ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update overwrites the mutable descriptive fields of a project. It
// returns sql.ErrNoRows when no row is affected.
func (r *ProjectRepo) Update(ctx context.Context, id, name, description, color, icon string) error {
	const q = `UPDATE projects
	           SET name = ?, description = ?, color = ?, icon = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, description, color, icon, id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetArchived flips the archive flag and timestamp. Archiving is
// reversible; restore clears the timestamp.
func (r *ProjectRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	var q string
	if archived {
		q = `UPDATE projects SET is_archived = 1, archived_at = CURRENT_TIMESTAMP,
		     updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	} else {
		q = `UPDATE projects SET is_archived = 0, archived_at = NULL,
		     updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	}
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("archive project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a project and all dependent records (boards, columns,
// tasks, task assignments and memberships). The cascade is issued
// explicitly, child tables first, inside one transaction so a partial
// failure cannot orphan children.
func (r *ProjectRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete project: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrProjectNotFound
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM board_columns WHERE board_id IN (SELECT id FROM boards WHERE project_id = ?)`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM boards WHERE project_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// AddMember attaches a user to a project with the given role. Adding
// an existing member updates the role instead of failing, so the call
// is idempotent.
func (r *ProjectRepo) AddMember(ctx context.Context, projectID string, userID uint64, role string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE project_members SET role = ? WHERE project_id = ? AND user_id = ?`,
		role, projectID, userID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role) VALUES (?, ?, ?)`,
		projectID, userID, role)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember detaches a user from a project. Removing a user who is
// not a member is not an error.
func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID string, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// GetMemberRole returns the user's role within the project, or the
// empty string when the user has no membership row. Ownership is not
// considered here; callers check the project's owner separately.
func (r *ProjectRepo) GetMemberRole(ctx context.Context, projectID string, userID uint64) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// ListMembers returns all membership rows of a project ordered by the
// time they were added.
func (r *ProjectRepo) ListMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	const q = `SELECT project_id, user_id, role, added_at
	           FROM project_members WHERE project_id = ? ORDER BY added_at, user_id`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProjectMember
	for rows.Next() {
		var m model.ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMemberIDs returns the user ids of everyone attached to the
// project, owner included. Used when fanning out notifications.
func (r *ProjectRepo) ListMemberIDs(ctx context.Context, projectID string) ([]uint64, error) {
	p, err := r.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	members, err := r.ListMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids := []uint64{p.OwnerID}
	for _, m := range members {
		if m.UserID != p.OwnerID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}
