package service

import (
	"context"
	"errors"
	"testing"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/queue"
	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/validator"
)

func TestTaskCreateDefaults(t *testing.T) {
	e := newEnv(t)
	col := e.firstColumn(t, e.board.ID)

	created, err := e.taskSvc.Create(context.Background(), e.member, model.TaskCreate{
		BoardID:  e.board.ID,
		ColumnID: col.ID,
		Title:    "Write docs",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != model.StatusTodo || created.Priority != model.PriorityMedium {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if created.ProjectID != e.project.ID || created.Position != 1 {
		t.Fatalf("created = %+v", created)
	}
	ev := e.events.last(t)
	if ev.EntityType != queue.EntityTask || ev.Action != queue.ActionCreated || ev.BoardID != e.board.ID {
		t.Fatalf("event = %+v", ev)
	}
}

func TestTaskCreatePriorityFallsBackToColumnDefault(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	col := e.firstColumn(t, e.board.ID)

	settings := model.ColumnSettings{DefaultTaskPriority: model.PriorityUrgent}
	if err := e.columns.Update(ctx, col.ID, model.ColumnUpdate{Settings: &settings}); err != nil {
		t.Fatalf("set column settings: %v", err)
	}

	created, err := e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID:  e.board.ID,
		ColumnID: col.ID,
		Title:    "Hotfix",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != model.PriorityUrgent {
		t.Fatalf("priority = %q, want urgent", created.Priority)
	}

	// An explicit priority always wins over column defaults.
	created, err = e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID:  e.board.ID,
		ColumnID: col.ID,
		Title:    "Cleanup",
		Priority: model.PriorityLow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != model.PriorityLow {
		t.Fatalf("priority = %q, want low", created.Priority)
	}
}

func TestTaskCreateDeniedForViewer(t *testing.T) {
	e := newEnv(t)
	col := e.firstColumn(t, e.board.ID)

	_, err := e.taskSvc.Create(context.Background(), e.viewer, model.TaskCreate{
		BoardID:  e.board.ID,
		ColumnID: col.ID,
		Title:    "Not allowed",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
	if e.countRows(t, "tasks") != 0 {
		t.Fatal("task written despite denial")
	}
}

func TestTaskCreateHonorsBoardCreationLock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	col := e.firstColumn(t, e.board.ID)

	locked := model.DefaultBoardSettings()
	locked.AllowTaskCreation = false
	if err := e.boards.Update(ctx, e.board.ID, model.BoardUpdate{Settings: &locked}); err != nil {
		t.Fatalf("lock board: %v", err)
	}

	_, err := e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID:  e.board.ID,
		ColumnID: col.ID,
		Title:    "Blocked by settings",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("member err = %v, want ErrAccessDenied", err)
	}

	// Managers bypass the lock.
	if _, err := e.taskSvc.Create(ctx, e.owner, model.TaskCreate{
		BoardID:  e.board.ID,
		ColumnID: col.ID,
		Title:    "Manager override",
	}); err != nil {
		t.Fatalf("owner err = %v", err)
	}
}

func TestTaskCreateEnforcesWIPLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	col := e.firstColumn(t, e.board.ID)

	strict := model.DefaultBoardSettings()
	strict.EnforceWIPLimits = true
	if err := e.boards.Update(ctx, e.board.ID, model.BoardUpdate{Settings: &strict}); err != nil {
		t.Fatalf("board settings: %v", err)
	}
	limit := 1
	if err := e.columns.Update(ctx, col.ID, model.ColumnUpdate{WIPLimit: &limit}); err != nil {
		t.Fatalf("column limit: %v", err)
	}

	if _, err := e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID: e.board.ID, ColumnID: col.ID, Title: "First in"},
	); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID: e.board.ID, ColumnID: col.ID, Title: "One too many"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestTaskMoveMarksDone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cols, err := e.columns.ListByBoard(ctx, e.board.ID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	src, done := cols[0], cols[3]
	settings := model.ColumnSettings{MarkTasksDone: true}
	if err := e.columns.Update(ctx, done.ID, model.ColumnUpdate{Settings: &settings}); err != nil {
		t.Fatalf("column settings: %v", err)
	}

	task, err := e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID: e.board.ID, ColumnID: src.ID, Title: "Almost done"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	moved, err := e.taskSvc.Move(ctx, e.member, task.ID, done.ID)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.ColumnID != done.ID || moved.Status != model.StatusDone {
		t.Fatalf("moved = %+v", moved)
	}
	ev := e.events.last(t)
	if ev.Action != queue.ActionMoved {
		t.Fatalf("event = %+v", ev)
	}
	if _, ok := ev.Changes["column"]; !ok {
		t.Fatalf("event lacks column change: %+v", ev.Changes)
	}
}

func TestTaskMovePermission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cols, _ := e.columns.ListByBoard(ctx, e.board.ID)
	// A task created by the owner: a plain member may not move it
	// unless assigned.
	task, err := e.taskSvc.Create(ctx, e.owner, model.TaskCreate{
		BoardID: e.board.ID, ColumnID: cols[0].ID, Title: "Owner task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.taskSvc.Move(ctx, e.member, task.ID, cols[1].ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("unassigned member moved task: %v", err)
	}

	if _, err := e.taskSvc.Assign(ctx, e.owner, task.ID, e.member); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := e.taskSvc.Move(ctx, e.member, task.ID, cols[1].ID); err != nil {
		t.Fatalf("assignee move: %v", err)
	}
}

func TestTaskAssignRequiresAssignRight(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	col := e.firstColumn(t, e.board.ID)

	task, err := e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID: e.board.ID, ColumnID: col.ID, Title: "Shared work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Members never hold assign rights, not even on their own tasks.
	if _, err := e.taskSvc.Assign(ctx, e.member, task.ID, e.viewer); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("member assigned user: %v", err)
	}

	assigned, err := e.taskSvc.Assign(ctx, e.owner, task.ID, e.member)
	if err != nil {
		t.Fatalf("owner assign: %v", err)
	}
	if len(assigned.Assignees) != 1 || assigned.Assignees[0] != e.member {
		t.Fatalf("assignees = %v", assigned.Assignees)
	}
	// The assigned user gets a push.
	call := e.notified.calls[len(e.notified.calls)-1]
	if call.n.Type != "task_assigned" || len(call.userIDs) != 1 || call.userIDs[0] != e.member {
		t.Fatalf("notification = %+v to %v", call.n, call.userIDs)
	}

	if _, err := e.taskSvc.Unassign(ctx, e.owner, task.ID, e.member); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if ev := e.events.last(t); ev.Action != queue.ActionUnassigned {
		t.Fatalf("event = %+v", ev)
	}
}

func TestTaskUpdateNotifiesAssigneesOnStatusChange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	col := e.firstColumn(t, e.board.ID)

	task, err := e.taskSvc.Create(ctx, e.owner, model.TaskCreate{
		BoardID:   e.board.ID,
		ColumnID:  col.ID,
		Title:     "Watched task",
		Assignees: []uint64{e.member},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	notifications := len(e.notified.calls)

	status := model.StatusInProgress
	updated, err := e.taskSvc.Update(ctx, e.owner, task.ID, model.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.StatusInProgress {
		t.Fatalf("status = %q", updated.Status)
	}
	ev := e.events.last(t)
	if ev.Action != queue.ActionUpdated {
		t.Fatalf("event = %+v", ev)
	}
	if _, ok := ev.Changes["status"]; !ok {
		t.Fatalf("event lacks status change: %+v", ev.Changes)
	}
	if len(e.notified.calls) != notifications+1 {
		t.Fatalf("notifications = %d, want %d", len(e.notified.calls), notifications+1)
	}
	if call := e.notified.calls[len(e.notified.calls)-1]; call.n.Type != "task_status_changed" {
		t.Fatalf("notification = %+v", call.n)
	}

	// A title-only update changes no status and pushes nothing.
	title := "Watched task v2"
	if _, err := e.taskSvc.Update(ctx, e.owner, task.ID, model.TaskUpdate{Title: &title}); err != nil {
		t.Fatalf("title update: %v", err)
	}
	if len(e.notified.calls) != notifications+1 {
		t.Fatal("title update produced a notification")
	}
}

func TestTaskSearchRequiresBoard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.taskSvc.Search(ctx, e.member, repository.TaskFilter{}, repository.Sort{}, repository.Page{})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	if _, _, err := e.taskSvc.Search(ctx, e.outsider,
		repository.TaskFilter{BoardID: e.board.ID}, repository.Sort{}, repository.Page{}); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("outsider searched board: %v", err)
	}
}

func TestTaskDeleteOnlyByCreator(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	col := e.firstColumn(t, e.board.ID)

	task, err := e.taskSvc.Create(ctx, e.owner, model.TaskCreate{
		BoardID: e.board.ID, ColumnID: col.ID, Title: "Owner task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.taskSvc.Delete(ctx, e.member, task.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("member deleted foreign task: %v", err)
	}

	mine, err := e.taskSvc.Create(ctx, e.member, model.TaskCreate{
		BoardID: e.board.ID, ColumnID: col.ID, Title: "Member task"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.taskSvc.Delete(ctx, e.member, mine.ID); err != nil {
		t.Fatalf("member delete own: %v", err)
	}
	if e.countRows(t, "tasks") != 1 {
		t.Fatalf("tasks = %d, want 1", e.countRows(t, "tasks"))
	}
}
