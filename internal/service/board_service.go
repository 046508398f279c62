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

// BoardService wraps BoardRepo with permission checks, validation,
// caching and event emission. All mutations go through here; handlers
// never touch the repository directly.
type BoardService struct {
	boards   *repository.BoardRepo
	projects *repository.ProjectRepo
	perms    *permission.BoardPermissionService
	valid    *validator.BoardValidator
	cache    *cache.Cache
	events   EventPublisher
	notifier Notifier
}

// NewBoardService builds a BoardService. cache, events and notifier
// may be nil; the service then degrades to plain repository access.
func NewBoardService(boards *repository.BoardRepo, projects *repository.ProjectRepo, perms *permission.BoardPermissionService, valid *validator.BoardValidator, c *cache.Cache, events EventPublisher, notifier Notifier) *BoardService {
	return &BoardService{boards: boards, projects: projects, perms: perms, valid: valid, cache: c, events: events, notifier: notifier}
}

// Create validates and persists a new board. The caller must be able
// to create boards in the target project. A duplicate name within the
// project is rejected before the insert.
func (s *BoardService) Create(ctx context.Context, actorID uint64, in model.BoardCreate) (*model.Board, error) {
	if !s.perms.CanUserCreateBoard(ctx, in.ProjectID, actorID) {
		return nil, ErrAccessDenied
	}
	if in.Visibility == "" {
		in.Visibility = model.VisibilityTeam
	}
	if errs := s.valid.ValidateCreate(in); len(errs) > 0 {
		return nil, errs
	}
	exists, err := s.boards.ExistsByName(ctx, in.ProjectID, in.Name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: board name already used in this project", repository.ErrConflict)
	}

	settings := model.DefaultBoardSettings()
	if in.Settings != nil {
		settings = *in.Settings
	}
	b := &model.Board{
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Visibility:  in.Visibility,
		Settings:    settings,
		CreatedBy:   actorID,
	}
	if err := s.boards.Create(ctx, b); err != nil {
		return nil, err
	}
	created, err := s.boards.FindByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateProjectBoards(ctx, created.ProjectID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityBoard,
		EntityID:   created.ID,
		EntityName: created.Name,
		ProjectID:  created.ProjectID,
		Action:     queue.ActionCreated,
		ActorID:    actorID,
	})
	if ids, err := s.projects.ListMemberIDs(ctx, created.ProjectID); err == nil {
		notify(s.notifier, ids, actorID, ws.Notification{
			Type:       "board_created",
			EntityType: queue.EntityBoard,
			EntityID:   created.ID,
			ProjectID:  created.ProjectID,
			Message:    fmt.Sprintf("Board %q was created", created.Name),
		})
	}
	return created, nil
}

// Get returns a single board, read through the cache when possible.
func (s *BoardService) Get(ctx context.Context, actorID uint64, boardID string) (*model.Board, error) {
	if !s.perms.CanUserViewBoard(ctx, boardID, actorID) {
		return nil, ErrAccessDenied
	}
	if b, ok := s.cache.GetBoard(ctx, boardID); ok {
		return b, nil
	}
	b, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.cache.SetBoard(ctx, b)
	return b, nil
}

// Permissions resolves the caller's effective rights on a board, for
// clients that hide unavailable actions up front.
func (s *BoardService) Permissions(ctx context.Context, actorID uint64, boardID string) permission.BoardPermissions {
	return s.perms.GetUserPermissions(ctx, boardID, actorID)
}

// ListForProject returns the project's boards the caller may see.
// Project members get the full list; everyone else only sees public
// boards.
func (s *BoardService) ListForProject(ctx context.Context, actorID uint64, projectID string, includeArchived bool) ([]*model.Board, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	full := p.OwnerID == actorID || s.perms.CanUserManageProject(ctx, projectID, actorID)
	if !full {
		role, err := s.projects.GetMemberRole(ctx, projectID, actorID)
		if err != nil {
			return nil, err
		}
		full = role != ""
	}
	if !includeArchived {
		if bs, ok := s.cache.GetProjectBoards(ctx, projectID); ok {
			return filterVisible(bs, full), nil
		}
	}
	bs, err := s.boards.ListByProject(ctx, projectID, includeArchived)
	if err != nil {
		return nil, err
	}
	if !includeArchived {
		s.cache.SetProjectBoards(ctx, projectID, bs)
	}
	return filterVisible(bs, full), nil
}

// Search returns boards matching the filter together with the total
// match count. Results are restricted to public boards unless the
// filter names a project the caller belongs to.
func (s *BoardService) Search(ctx context.Context, actorID uint64, f repository.BoardFilter, sort repository.Sort, page repository.Page) ([]*model.Board, int, error) {
	if f.ProjectID == "" {
		f.Visibility = model.VisibilityPublic
	} else if !s.perms.CanUserCreateBoard(ctx, f.ProjectID, actorID) {
		role, err := s.projects.GetMemberRole(ctx, f.ProjectID, actorID)
		if err != nil {
			return nil, 0, err
		}
		if role == "" {
			f.Visibility = model.VisibilityPublic
		}
	}
	return s.boards.List(ctx, f, sort, page)
}

// filterVisible drops non-public boards for callers outside the
// project. Members see everything.
func filterVisible(bs []*model.Board, full bool) []*model.Board {
	if full {
		return bs
	}
	out := make([]*model.Board, 0, len(bs))
	for _, b := range bs {
		if b.Visibility == model.VisibilityPublic {
			out = append(out, b)
		}
	}
	return out
}

// Update applies a partial update. Changing visibility or settings is
// a management action and needs the stronger permission; everything
// else only needs edit rights.
func (s *BoardService) Update(ctx context.Context, actorID uint64, boardID string, in model.BoardUpdate) (*model.Board, error) {
	p := s.perms.GetUserPermissions(ctx, boardID, actorID)
	if !p.CanEdit {
		return nil, ErrAccessDenied
	}
	if (in.Visibility != nil || in.Settings != nil) && !p.CanManage {
		return nil, ErrAccessDenied
	}
	if errs := s.valid.ValidateUpdate(in); len(errs) > 0 {
		return nil, errs
	}
	b, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && *in.Name != b.Name {
		exists, err := s.boards.ExistsByName(ctx, b.ProjectID, *in.Name, boardID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: board name already used in this project", repository.ErrConflict)
		}
	}
	if err := s.boards.Update(ctx, boardID, in); err != nil {
		return nil, err
	}
	updated, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteBoard(ctx, boardID)
	s.cache.InvalidateProjectBoards(ctx, b.ProjectID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityBoard,
		EntityID:   updated.ID,
		EntityName: updated.Name,
		ProjectID:  updated.ProjectID,
		Action:     queue.ActionUpdated,
		ActorID:    actorID,
	})
	return updated, nil
}

// Delete removes a board and everything on it. Only users with delete
// rights may do this; project members are notified afterwards.
func (s *BoardService) Delete(ctx context.Context, actorID uint64, boardID string) error {
	if !s.perms.CanUserDeleteBoard(ctx, boardID, actorID) {
		return ErrAccessDenied
	}
	b, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return err
	}
	if err := s.boards.Delete(ctx, boardID); err != nil {
		return err
	}
	s.cache.DeleteBoard(ctx, boardID)
	s.cache.InvalidateProjectBoards(ctx, b.ProjectID)
	s.cache.InvalidateBoardColumns(ctx, boardID)
	s.cache.InvalidateBoardTasks(ctx, boardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityBoard,
		EntityID:   b.ID,
		EntityName: b.Name,
		ProjectID:  b.ProjectID,
		Action:     queue.ActionDeleted,
		ActorID:    actorID,
	})
	if ids, err := s.projects.ListMemberIDs(ctx, b.ProjectID); err == nil {
		notify(s.notifier, ids, actorID, ws.Notification{
			Type:       "board_deleted",
			EntityType: queue.EntityBoard,
			EntityID:   b.ID,
			ProjectID:  b.ProjectID,
			Message:    fmt.Sprintf("Board %q was deleted", b.Name),
		})
	}
	return nil
}

// SetArchived archives or restores a board. Archiving requires
// management rights since it hides the board from day-to-day views.
func (s *BoardService) SetArchived(ctx context.Context, actorID uint64, boardID string, archived bool) (*model.Board, error) {
	p := s.perms.GetUserPermissions(ctx, boardID, actorID)
	if !p.CanManage {
		return nil, ErrAccessDenied
	}
	if err := s.boards.SetArchived(ctx, boardID, archived); err != nil {
		return nil, err
	}
	b, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.cache.DeleteBoard(ctx, boardID)
	s.cache.InvalidateProjectBoards(ctx, b.ProjectID)
	action := queue.ActionArchived
	if !archived {
		action = queue.ActionRestored
	}
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityBoard,
		EntityID:   b.ID,
		EntityName: b.Name,
		ProjectID:  b.ProjectID,
		Action:     action,
		ActorID:    actorID,
	})
	return b, nil
}

// Reorder rewrites the positions of the project's boards in one
// transaction. ids and positions are parallel slices.
func (s *BoardService) Reorder(ctx context.Context, actorID uint64, projectID string, ids []string, positions []int) error {
	if !s.perms.CanUserManageProject(ctx, projectID, actorID) {
		return ErrAccessDenied
	}
	if errs := s.valid.ValidateReorder(ids, positions); len(errs) > 0 {
		return errs
	}
	if err := s.boards.UpdatePositions(ctx, projectID, ids, positions); err != nil {
		return err
	}
	s.cache.InvalidateProjectBoards(ctx, projectID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityBoard,
		EntityID:   projectID,
		ProjectID:  projectID,
		Action:     queue.ActionReordered,
		ActorID:    actorID,
	})
	return nil
}
