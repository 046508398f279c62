package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskhub/kanban-api/internal/model"
)

// testSchema mirrors the MySQL migration closely enough for the
// repositories, whose SQL sticks to the portable subset (? placeholders,
// CURRENT_TIMESTAMP, subquery deletes).
const testSchema = `
CREATE TABLE users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT     NOT NULL,
    email         TEXT     NOT NULL UNIQUE,
    password_hash TEXT     NOT NULL,
    role          TEXT     NOT NULL DEFAULT 'user',
    is_approved   INTEGER  NOT NULL DEFAULT 0,
    is_active     INTEGER  NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE refresh_tokens (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER  NOT NULL,
    token_hash TEXT     NOT NULL UNIQUE,
    expires_at DATETIME NOT NULL,
    revoked_at DATETIME NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE projects (
    id          TEXT     PRIMARY KEY,
    name        TEXT     NOT NULL,
    description TEXT     NOT NULL DEFAULT '',
    color       TEXT     NOT NULL DEFAULT '#6366F1',
    icon        TEXT     NOT NULL DEFAULT '',
    owner_id    INTEGER  NOT NULL,
    is_archived INTEGER  NOT NULL DEFAULT 0,
    archived_at DATETIME NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE project_members (
    project_id TEXT     NOT NULL,
    user_id    INTEGER  NOT NULL,
    role       TEXT     NOT NULL DEFAULT 'member',
    added_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (project_id, user_id)
);
CREATE TABLE boards (
    id          TEXT     PRIMARY KEY,
    project_id  TEXT     NOT NULL,
    name        TEXT     NOT NULL,
    description TEXT     NOT NULL DEFAULT '',
    color       TEXT     NOT NULL DEFAULT '#3B82F6',
    visibility  TEXT     NOT NULL DEFAULT 'team',
    settings    TEXT     NOT NULL,
    position    INTEGER  NOT NULL DEFAULT 0,
    created_by  INTEGER  NOT NULL,
    is_archived INTEGER  NOT NULL DEFAULT 0,
    archived_at DATETIME NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE board_columns (
    id           TEXT     PRIMARY KEY,
    board_id     TEXT     NOT NULL,
    title        TEXT     NOT NULL,
    color        TEXT     NOT NULL DEFAULT '#94A3B8',
    position     INTEGER  NOT NULL DEFAULT 0,
    wip_limit    INTEGER  NOT NULL DEFAULT 0,
    is_collapsed INTEGER  NOT NULL DEFAULT 0,
    settings     TEXT     NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE tasks (
    id              TEXT     PRIMARY KEY,
    project_id      TEXT     NOT NULL,
    board_id        TEXT     NOT NULL,
    column_id       TEXT     NOT NULL,
    title           TEXT     NOT NULL,
    description     TEXT     NOT NULL DEFAULT '',
    status          TEXT     NOT NULL DEFAULT 'todo',
    priority        TEXT     NOT NULL DEFAULT 'medium',
    tags            TEXT     NOT NULL,
    position        INTEGER  NOT NULL DEFAULT 0,
    estimated_hours REAL     NOT NULL DEFAULT 0,
    actual_hours    REAL     NOT NULL DEFAULT 0,
    deadline        DATETIME NULL,
    created_by      INTEGER  NOT NULL,
    is_archived     INTEGER  NOT NULL DEFAULT 0,
    archived_at     DATETIME NULL,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE task_assignees (
    task_id     TEXT     NOT NULL,
    user_id     INTEGER  NOT NULL,
    assigned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (task_id, user_id)
);
`

// setupDB opens an in-memory SQLite database with the full schema.
// SetMaxOpenConns(1) keeps every statement on the same connection,
// which is what :memory: requires.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedUser creates an approved, active user and returns its id. The
// low bcrypt cost keeps the test suite fast.
func seedUser(t *testing.T, db *sql.DB, email string) uint64 {
	t.Helper()
	users := NewUserRepo(db)
	id, err := users.Create(context.Background(), "Test User", email, "password123", 4)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	if err := users.Approve(context.Background(), id); err != nil {
		t.Fatalf("approve user %s: %v", email, err)
	}
	return id
}

// seedProject creates a project owned by ownerID.
func seedProject(t *testing.T, db *sql.DB, ownerID uint64) *model.Project {
	t.Helper()
	p := &model.Project{Name: "Test Project", OwnerID: ownerID}
	if err := NewProjectRepo(db).Create(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

// seedBoard creates a board (with its default columns) inside the
// project.
func seedBoard(t *testing.T, db *sql.DB, projectID string, createdBy uint64, name string) *model.Board {
	t.Helper()
	b := &model.Board{
		ProjectID:  projectID,
		Name:       name,
		Visibility: model.VisibilityTeam,
		Settings:   model.DefaultBoardSettings(),
		CreatedBy:  createdBy,
	}
	if err := NewBoardRepo(db).Create(context.Background(), b); err != nil {
		t.Fatalf("seed board %s: %v", name, err)
	}
	return b
}

// seedTask creates a task in the given column.
func seedTask(t *testing.T, db *sql.DB, boardID, columnID string, createdBy uint64, title string) *model.Task {
	t.Helper()
	task := &model.Task{
		BoardID:   boardID,
		ColumnID:  columnID,
		Title:     title,
		Status:    model.StatusTodo,
		Priority:  model.PriorityMedium,
		CreatedBy: createdBy,
	}
	if err := NewTaskRepo(db).Create(context.Background(), task); err != nil {
		t.Fatalf("seed task %s: %v", title, err)
	}
	return task
}

// firstColumn returns the column at position 1 of the board.
func firstColumn(t *testing.T, db *sql.DB, boardID string) *model.Column {
	t.Helper()
	cols, err := NewColumnRepo(db).ListByBoard(context.Background(), boardID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	if len(cols) == 0 {
		t.Fatalf("board %s has no columns", boardID)
	}
	return cols[0]
}
