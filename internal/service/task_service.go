package service

import (
	"context"
	"fmt"

	"github.com/taskhub/kanban-api/internal/cache"
	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/permission"
	"github.com/taskhub/kanban-api/internal/queue"
	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/validator"
	"github.com/taskhub/kanban-api/internal/ws"
)

// TaskService wraps TaskRepo with permission checks, validation, WIP
// limit enforcement, caching, event emission and assignee
// notifications. Task creation rights come from the board resolver;
// everything addressing an existing task uses the task resolver.
type TaskService struct {
	tasks      *repository.TaskRepo
	columns    *repository.ColumnRepo
	boards     *repository.BoardRepo
	perms      *permission.TaskPermissionService
	boardPerms *permission.BoardPermissionService
	valid      *validator.TaskValidator
	cache      *cache.Cache
	events     EventPublisher
	notifier   Notifier
}

// NewTaskService builds a TaskService. cache, events and notifier may
// be nil.
func NewTaskService(tasks *repository.TaskRepo, columns *repository.ColumnRepo, boards *repository.BoardRepo, perms *permission.TaskPermissionService, boardPerms *permission.BoardPermissionService, valid *validator.TaskValidator, c *cache.Cache, events EventPublisher, notifier Notifier) *TaskService {
	return &TaskService{
		tasks: tasks, columns: columns, boards: boards,
		perms: perms, boardPerms: boardPerms, valid: valid,
		cache: c, events: events, notifier: notifier,
	}
}

// checkWIP returns a conflict error when the board enforces WIP limits
// and the column is already at its limit. A limit of zero means
// unlimited.
func (s *TaskService) checkWIP(ctx context.Context, board *model.Board, col *model.Column) error {
	if !board.Settings.EnforceWIPLimits || col.WIPLimit <= 0 {
		return nil
	}
	n, err := s.tasks.CountActiveByColumn(ctx, col.ID)
	if err != nil {
		return err
	}
	if n >= col.WIPLimit {
		return fmt.Errorf("%w: column %q is at its WIP limit (%d)", repository.ErrConflict, col.Title, col.WIPLimit)
	}
	return nil
}

// Create validates and persists a new task at the end of its column.
// Board settings decide who may create tasks: when AllowTaskCreation
// is off, only users with management rights may add tasks. Status
// defaults to todo and priority falls back through column and board
// defaults.
func (s *TaskService) Create(ctx context.Context, actorID uint64, in model.TaskCreate) (*model.Task, error) {
	p := s.boardPerms.GetUserPermissions(ctx, in.BoardID, actorID)
	if !p.CanEdit {
		return nil, ErrAccessDenied
	}
	board, err := s.boards.FindByID(ctx, in.BoardID)
	if err != nil {
		return nil, err
	}
	if !board.Settings.AllowTaskCreation && !p.CanManage {
		return nil, ErrAccessDenied
	}
	col, err := s.columns.FindByID(ctx, in.ColumnID)
	if err != nil {
		return nil, err
	}
	if col.BoardID != in.BoardID {
		return nil, fmt.Errorf("%w: column belongs to another board", repository.ErrConflict)
	}

	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	if in.Priority == "" {
		in.Priority = col.Settings.DefaultTaskPriority
	}
	if in.Priority == "" {
		in.Priority = board.Settings.DefaultPriority
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if errs := s.valid.ValidateCreate(in); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkWIP(ctx, board, col); err != nil {
		return nil, err
	}

	t := &model.Task{
		BoardID:        in.BoardID,
		ColumnID:       in.ColumnID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         in.Status,
		Priority:       in.Priority,
		Tags:           in.Tags,
		EstimatedHours: in.EstimatedHours,
		Deadline:       in.Deadline,
		CreatedBy:      actorID,
		Assignees:      in.Assignees,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	created, err := s.tasks.FindByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateBoardTasks(ctx, created.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   created.ID,
		EntityName: created.Title,
		ProjectID:  created.ProjectID,
		BoardID:    created.BoardID,
		Action:     queue.ActionCreated,
		ActorID:    actorID,
	})
	if len(created.Assignees) > 0 {
		notify(s.notifier, created.Assignees, actorID, ws.Notification{
			Type:       "task_assigned",
			EntityType: queue.EntityTask,
			EntityID:   created.ID,
			ProjectID:  created.ProjectID,
			Message:    fmt.Sprintf("You were assigned to task %q", created.Title),
		})
	}
	return created, nil
}

// Get returns a single task, read through the cache when possible.
func (s *TaskService) Get(ctx context.Context, actorID uint64, taskID string) (*model.Task, error) {
	if !s.perms.CanUserViewTask(ctx, taskID, actorID) {
		return nil, ErrAccessDenied
	}
	if t, ok := s.cache.GetTask(ctx, taskID); ok {
		return t, nil
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.cache.SetTask(ctx, t)
	return t, nil
}

// Permissions resolves the caller's effective rights on a task.
func (s *TaskService) Permissions(ctx context.Context, actorID uint64, taskID string) permission.TaskPermissions {
	return s.perms.GetUserPermissions(ctx, taskID, actorID)
}

// ListForBoard returns the board's tasks, read through the cache when
// the caller wants the default (unfiltered, active) view.
func (s *TaskService) ListForBoard(ctx context.Context, actorID uint64, boardID string, includeArchived bool) ([]*model.Task, error) {
	if !s.boardPerms.CanUserViewBoard(ctx, boardID, actorID) {
		return nil, ErrAccessDenied
	}
	if !includeArchived {
		if ts, ok := s.cache.GetBoardTasks(ctx, boardID); ok {
			return ts, nil
		}
	}
	ts, _, err := s.tasks.List(ctx,
		repository.TaskFilter{BoardID: boardID, IncludeArchived: includeArchived},
		repository.Sort{}, repository.Page{})
	if err != nil {
		return nil, err
	}
	if !includeArchived {
		s.cache.SetBoardTasks(ctx, boardID, ts)
	}
	return ts, nil
}

// Search returns tasks matching the filter together with the total
// match count. The filter must name a board the caller may view.
func (s *TaskService) Search(ctx context.Context, actorID uint64, f repository.TaskFilter, sort repository.Sort, page repository.Page) ([]*model.Task, int, error) {
	if f.BoardID == "" {
		return nil, 0, validator.ValidationErrors{{Field: "board_id", Message: "board_id is required", Code: validator.CodeRequired}}
	}
	if !s.boardPerms.CanUserViewBoard(ctx, f.BoardID, actorID) {
		return nil, 0, ErrAccessDenied
	}
	return s.tasks.List(ctx, f, sort, page)
}

// Update applies a partial update to a task. Assignees are notified
// when the status changes under them.
func (s *TaskService) Update(ctx context.Context, actorID uint64, taskID string, in model.TaskUpdate) (*model.Task, error) {
	if !s.perms.CanUserEditTask(ctx, taskID, actorID) {
		return nil, ErrAccessDenied
	}
	if errs := s.valid.ValidateUpdate(in); len(errs) > 0 {
		return nil, errs
	}
	before, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, taskID, in); err != nil {
		return nil, err
	}
	updated, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteTask(ctx, taskID)
	s.cache.InvalidateBoardTasks(ctx, updated.BoardID)

	changes := map[string]any{}
	if updated.Status != before.Status {
		changes["status"] = map[string]string{"from": before.Status, "to": updated.Status}
	}
	if updated.Priority != before.Priority {
		changes["priority"] = map[string]string{"from": before.Priority, "to": updated.Priority}
	}
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   updated.ID,
		EntityName: updated.Title,
		ProjectID:  updated.ProjectID,
		BoardID:    updated.BoardID,
		Action:     queue.ActionUpdated,
		ActorID:    actorID,
		Changes:    changes,
	})
	if updated.Status != before.Status && len(updated.Assignees) > 0 {
		notify(s.notifier, updated.Assignees, actorID, ws.Notification{
			Type:       "task_status_changed",
			EntityType: queue.EntityTask,
			EntityID:   updated.ID,
			ProjectID:  updated.ProjectID,
			Message:    fmt.Sprintf("Task %q moved to status %s", updated.Title, updated.Status),
		})
	}
	return updated, nil
}

// Move places a task at the end of another column on the same board.
// The target column's WIP limit is enforced, and columns configured to
// mark arriving tasks done flip the status afterwards.
func (s *TaskService) Move(ctx context.Context, actorID uint64, taskID, toColumnID string) (*model.Task, error) {
	p := s.perms.GetUserPermissions(ctx, taskID, actorID)
	if !p.CanMove {
		return nil, ErrAccessDenied
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	col, err := s.columns.FindByID(ctx, toColumnID)
	if err != nil {
		return nil, err
	}
	if col.BoardID != t.BoardID {
		return nil, fmt.Errorf("%w: column belongs to another board", repository.ErrConflict)
	}
	board, err := s.boards.FindByID(ctx, t.BoardID)
	if err != nil {
		return nil, err
	}
	if toColumnID != t.ColumnID {
		if err := s.checkWIP(ctx, board, col); err != nil {
			return nil, err
		}
	}
	if err := s.tasks.Move(ctx, taskID, toColumnID); err != nil {
		return nil, err
	}
	if col.Settings.MarkTasksDone && t.Status != model.StatusDone {
		done := model.StatusDone
		if err := s.tasks.Update(ctx, taskID, model.TaskUpdate{Status: &done}); err != nil {
			return nil, err
		}
	}
	moved, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteTask(ctx, taskID)
	s.cache.InvalidateBoardTasks(ctx, moved.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   moved.ID,
		EntityName: moved.Title,
		ProjectID:  moved.ProjectID,
		BoardID:    moved.BoardID,
		Action:     queue.ActionMoved,
		ActorID:    actorID,
		Changes:    map[string]any{"column": map[string]string{"from": t.ColumnID, "to": toColumnID}},
	})
	if col.Settings.NotifyOnTaskAdd && len(moved.Assignees) > 0 {
		notify(s.notifier, moved.Assignees, actorID, ws.Notification{
			Type:       "task_moved",
			EntityType: queue.EntityTask,
			EntityID:   moved.ID,
			ProjectID:  moved.ProjectID,
			Message:    fmt.Sprintf("Task %q moved to column %q", moved.Title, col.Title),
		})
	}
	return moved, nil
}

// Delete removes a task and its assignments.
func (s *TaskService) Delete(ctx context.Context, actorID uint64, taskID string) error {
	if !s.perms.CanUserDeleteTask(ctx, taskID, actorID) {
		return ErrAccessDenied
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	s.cache.DeleteTask(ctx, taskID)
	s.cache.InvalidateBoardTasks(ctx, t.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   t.ID,
		EntityName: t.Title,
		ProjectID:  t.ProjectID,
		BoardID:    t.BoardID,
		Action:     queue.ActionDeleted,
		ActorID:    actorID,
	})
	return nil
}

// SetArchived archives or restores a task. Edit rights are enough;
// archiving is reversible, unlike deletion.
func (s *TaskService) SetArchived(ctx context.Context, actorID uint64, taskID string, archived bool) (*model.Task, error) {
	if !s.perms.CanUserEditTask(ctx, taskID, actorID) {
		return nil, ErrAccessDenied
	}
	if err := s.tasks.SetArchived(ctx, taskID, archived); err != nil {
		return nil, err
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteTask(ctx, taskID)
	s.cache.InvalidateBoardTasks(ctx, t.BoardID)
	action := queue.ActionArchived
	if !archived {
		action = queue.ActionRestored
	}
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   t.ID,
		EntityName: t.Title,
		ProjectID:  t.ProjectID,
		BoardID:    t.BoardID,
		Action:     action,
		ActorID:    actorID,
	})
	return t, nil
}

// Assign adds a user to the task's assignees and notifies them. The
// call is idempotent; assigning an existing assignee changes nothing.
func (s *TaskService) Assign(ctx context.Context, actorID uint64, taskID string, userID uint64) (*model.Task, error) {
	p := s.perms.GetUserPermissions(ctx, taskID, actorID)
	if !p.CanAssign {
		return nil, ErrAccessDenied
	}
	if err := s.tasks.AddAssignee(ctx, taskID, userID); err != nil {
		return nil, err
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteTask(ctx, taskID)
	s.cache.InvalidateBoardTasks(ctx, t.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   t.ID,
		EntityName: t.Title,
		ProjectID:  t.ProjectID,
		BoardID:    t.BoardID,
		Action:     queue.ActionAssigned,
		ActorID:    actorID,
		Changes:    map[string]any{"user_id": userID},
	})
	notify(s.notifier, []uint64{userID}, actorID, ws.Notification{
		Type:       "task_assigned",
		EntityType: queue.EntityTask,
		EntityID:   t.ID,
		ProjectID:  t.ProjectID,
		Message:    fmt.Sprintf("You were assigned to task %q", t.Title),
	})
	return t, nil
}

// Unassign removes a user from the task's assignees.
func (s *TaskService) Unassign(ctx context.Context, actorID uint64, taskID string, userID uint64) (*model.Task, error) {
	p := s.perms.GetUserPermissions(ctx, taskID, actorID)
	if !p.CanAssign {
		return nil, ErrAccessDenied
	}
	if err := s.tasks.RemoveAssignee(ctx, taskID, userID); err != nil {
		return nil, err
	}
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteTask(ctx, taskID)
	s.cache.InvalidateBoardTasks(ctx, t.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   t.ID,
		EntityName: t.Title,
		ProjectID:  t.ProjectID,
		BoardID:    t.BoardID,
		Action:     queue.ActionUnassigned,
		ActorID:    actorID,
		Changes:    map[string]any{"user_id": userID},
	})
	return t, nil
}

// Reorder rewrites the positions of the column's tasks in one
// transaction. ids and positions are parallel slices. Edit rights on
// the owning board are required.
func (s *TaskService) Reorder(ctx context.Context, actorID uint64, columnID string, ids []string, positions []int) error {
	col, err := s.columns.FindByID(ctx, columnID)
	if err != nil {
		return err
	}
	if !s.boardPerms.CanUserEditBoard(ctx, col.BoardID, actorID) {
		return ErrAccessDenied
	}
	if errs := s.valid.ValidateReorder(ids, positions); len(errs) > 0 {
		return errs
	}
	if err := s.tasks.UpdatePositions(ctx, columnID, ids, positions); err != nil {
		return err
	}
	s.cache.InvalidateBoardTasks(ctx, col.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityTask,
		EntityID:   columnID,
		BoardID:    col.BoardID,
		Action:     queue.ActionReordered,
		ActorID:    actorID,
	})
	return nil
}
