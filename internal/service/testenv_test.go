package service

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/permission"
	"github.com/taskhub/kanban-api/internal/queue"
	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/validator"
	"github.com/taskhub/kanban-api/internal/ws"
)

const schema = `
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
CREATE TABLE projects (
    id          TEXT PRIMARY KEY,
    name        TEXT     NOT NULL,
    description TEXT     NOT NULL DEFAULT '',
    color       TEXT     NOT NULL DEFAULT '',
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
    role       TEXT     NOT NULL,
    added_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (project_id, user_id)
);
CREATE TABLE boards (
    id          TEXT PRIMARY KEY,
    project_id  TEXT     NOT NULL,
    name        TEXT     NOT NULL,
    description TEXT     NOT NULL DEFAULT '',
    color       TEXT     NOT NULL DEFAULT '',
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
    id           TEXT PRIMARY KEY,
    board_id     TEXT     NOT NULL,
    title        TEXT     NOT NULL,
    color        TEXT     NOT NULL DEFAULT '',
    position     INTEGER  NOT NULL DEFAULT 0,
    wip_limit    INTEGER  NOT NULL DEFAULT 0,
    is_collapsed INTEGER  NOT NULL DEFAULT 0,
    settings     TEXT     NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE tasks (
    id              TEXT PRIMARY KEY,
    project_id      TEXT     NOT NULL,
    board_id        TEXT     NOT NULL,
    column_id       TEXT     NOT NULL,
    title           TEXT     NOT NULL,
    description     TEXT     NOT NULL DEFAULT '',
    status          TEXT     NOT NULL,
    priority        TEXT     NOT NULL,
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
    task_id  TEXT    NOT NULL,
    user_id  INTEGER NOT NULL,
    added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (task_id, user_id)
);`

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	events []queue.ActivityEvent
}

func (r *eventRecorder) PublishActivity(_ context.Context, ev queue.ActivityEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) last(t *testing.T) queue.ActivityEvent {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("no events published")
	}
	return r.events[len(r.events)-1]
}

// notifyRecorder captures dispatched notifications.
type notifyCall struct {
	userIDs []uint64
	n       ws.Notification
}

type notifyRecorder struct {
	calls []notifyCall
}

func (r *notifyRecorder) Notify(userIDs []uint64, n ws.Notification) {
	r.calls = append(r.calls, notifyCall{userIDs: userIDs, n: n})
}

// env assembles the full service stack over an in-memory database.
// Events and notifications feed the recorders; the cache is absent.
type env struct {
	db       *sql.DB
	userRepo *repository.UserRepo
	projects *repository.ProjectRepo
	boards   *repository.BoardRepo
	columns  *repository.ColumnRepo
	tasks    *repository.TaskRepo

	boardSvc  *BoardService
	columnSvc *ColumnService
	taskSvc   *TaskService

	events   *eventRecorder
	notified *notifyRecorder

	owner    uint64
	member   uint64
	viewer   uint64
	outsider uint64

	project *model.Project
	board   *model.Board
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	e := &env{
		db:       db,
		userRepo: repository.NewUserRepo(db),
		projects: repository.NewProjectRepo(db),
		boards:   repository.NewBoardRepo(db),
		columns:  repository.NewColumnRepo(db),
		tasks:    repository.NewTaskRepo(db),
		events:   &eventRecorder{},
		notified: &notifyRecorder{},
	}
	ctx := context.Background()

	addUser := func(email string) uint64 {
		id, err := e.userRepo.Create(ctx, "Someone", email, "password123", 4)
		if err != nil {
			t.Fatalf("create user %s: %v", email, err)
		}
		if err := e.userRepo.Approve(ctx, id); err != nil {
			t.Fatalf("approve %s: %v", email, err)
		}
		return id
	}
	e.owner = addUser("owner@example.com")
	e.member = addUser("member@example.com")
	e.viewer = addUser("viewer@example.com")
	e.outsider = addUser("outsider@example.com")

	e.project = &model.Project{Name: "Env", OwnerID: e.owner}
	if err := e.projects.Create(ctx, e.project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := e.projects.AddMember(ctx, e.project.ID, e.member, model.ProjectRoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := e.projects.AddMember(ctx, e.project.ID, e.viewer, model.ProjectRoleViewer); err != nil {
		t.Fatalf("add viewer: %v", err)
	}

	e.board = &model.Board{
		ProjectID:  e.project.ID,
		Name:       "Main board",
		Visibility: model.VisibilityTeam,
		Settings:   model.DefaultBoardSettings(),
		CreatedBy:  e.owner,
	}
	if err := e.boards.Create(ctx, e.board); err != nil {
		t.Fatalf("create board: %v", err)
	}

	boardPerms := permission.NewBoardPermissionService(e.userRepo, e.projects, e.boards)
	taskPerms := permission.NewTaskPermissionService(e.userRepo, e.projects, e.tasks)
	e.boardSvc = NewBoardService(e.boards, e.projects, boardPerms, validator.NewBoardValidator(), nil, e.events, e.notified)
	e.columnSvc = NewColumnService(e.columns, e.boards, boardPerms, validator.NewColumnValidator(), nil, e.events)
	e.taskSvc = NewTaskService(e.tasks, e.columns, e.boards, taskPerms, boardPerms, validator.NewTaskValidator(), nil, e.events, e.notified)
	return e
}

// firstColumn returns the board's first default column.
func (e *env) firstColumn(t *testing.T, boardID string) *model.Column {
	t.Helper()
	cols, err := e.columns.ListByBoard(context.Background(), boardID)
	if err != nil || len(cols) == 0 {
		t.Fatalf("list columns: %v", err)
	}
	return cols[0]
}

// countRows counts rows in a table, for asserting that rejected
// operations left no trace.
func (e *env) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
