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
)

// ColumnService wraps ColumnRepo with permission checks, validation,
// caching and event emission. Column permissions derive from the
// owning board: adding or removing columns changes the board's
// structure and needs management rights, while cosmetic updates only
// need edit rights.
type ColumnService struct {
	columns *repository.ColumnRepo
	boards  *repository.BoardRepo
	perms   *permission.BoardPermissionService
	valid   *validator.ColumnValidator
	cache   *cache.Cache
	events  EventPublisher
}

// NewColumnService builds a ColumnService. cache and events may be
// nil.
func NewColumnService(columns *repository.ColumnRepo, boards *repository.BoardRepo, perms *permission.BoardPermissionService, valid *validator.ColumnValidator, c *cache.Cache, events EventPublisher) *ColumnService {
	return &ColumnService{columns: columns, boards: boards, perms: perms, valid: valid, cache: c, events: events}
}

// List returns the board's columns in position order, read through
// the cache when possible.
func (s *ColumnService) List(ctx context.Context, actorID uint64, boardID string) ([]*model.Column, error) {
	if !s.perms.CanUserViewBoard(ctx, boardID, actorID) {
		return nil, ErrAccessDenied
	}
	if cols, ok := s.cache.GetBoardColumns(ctx, boardID); ok {
		return cols, nil
	}
	cols, err := s.columns.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.cache.SetBoardColumns(ctx, boardID, cols)
	return cols, nil
}

// Get returns a single column. View access to the owning board is
// required.
func (s *ColumnService) Get(ctx context.Context, actorID uint64, columnID string) (*model.Column, error) {
	col, err := s.columns.FindByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if !s.perms.CanUserViewBoard(ctx, col.BoardID, actorID) {
		return nil, ErrAccessDenied
	}
	return col, nil
}

// Create validates and persists a new column at the end of the board.
// A duplicate title within the board is rejected before the insert.
func (s *ColumnService) Create(ctx context.Context, actorID uint64, in model.ColumnCreate) (*model.Column, error) {
	p := s.perms.GetUserPermissions(ctx, in.BoardID, actorID)
	if !p.CanManage {
		return nil, ErrAccessDenied
	}
	if errs := s.valid.ValidateCreate(in); len(errs) > 0 {
		return nil, errs
	}
	exists, err := s.columns.ExistsByTitle(ctx, in.BoardID, in.Title, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: column title already used on this board", repository.ErrConflict)
	}

	col := &model.Column{
		BoardID:  in.BoardID,
		Title:    in.Title,
		Color:    in.Color,
		WIPLimit: in.WIPLimit,
	}
	if in.Settings != nil {
		col.Settings = *in.Settings
	}
	if err := s.columns.Create(ctx, col); err != nil {
		return nil, err
	}
	created, err := s.columns.FindByID(ctx, col.ID)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateBoardColumns(ctx, in.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityColumn,
		EntityID:   created.ID,
		EntityName: created.Title,
		BoardID:    created.BoardID,
		Action:     queue.ActionCreated,
		ActorID:    actorID,
	})
	return created, nil
}

// Update applies a partial update to a column. Edit rights on the
// owning board are enough; renaming checks title uniqueness first.
func (s *ColumnService) Update(ctx context.Context, actorID uint64, columnID string, in model.ColumnUpdate) (*model.Column, error) {
	col, err := s.columns.FindByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if !s.perms.CanUserEditBoard(ctx, col.BoardID, actorID) {
		return nil, ErrAccessDenied
	}
	if errs := s.valid.ValidateUpdate(in); len(errs) > 0 {
		return nil, errs
	}
	if in.Title != nil && *in.Title != col.Title {
		exists, err := s.columns.ExistsByTitle(ctx, col.BoardID, *in.Title, columnID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: column title already used on this board", repository.ErrConflict)
		}
	}
	if err := s.columns.Update(ctx, columnID, in); err != nil {
		return nil, err
	}
	updated, err := s.columns.FindByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateBoardColumns(ctx, col.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityColumn,
		EntityID:   updated.ID,
		EntityName: updated.Title,
		BoardID:    updated.BoardID,
		Action:     queue.ActionUpdated,
		ActorID:    actorID,
	})
	return updated, nil
}

// Delete removes a column together with all its tasks. Management
// rights on the owning board are required since this destroys data.
func (s *ColumnService) Delete(ctx context.Context, actorID uint64, columnID string) error {
	col, err := s.columns.FindByID(ctx, columnID)
	if err != nil {
		return err
	}
	p := s.perms.GetUserPermissions(ctx, col.BoardID, actorID)
	if !p.CanManage {
		return ErrAccessDenied
	}
	if err := s.columns.Delete(ctx, columnID); err != nil {
		return err
	}
	s.cache.InvalidateBoardColumns(ctx, col.BoardID)
	s.cache.InvalidateBoardTasks(ctx, col.BoardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityColumn,
		EntityID:   col.ID,
		EntityName: col.Title,
		BoardID:    col.BoardID,
		Action:     queue.ActionDeleted,
		ActorID:    actorID,
	})
	return nil
}

// Reorder rewrites the positions of the board's columns in one
// transaction. ids and positions are parallel slices.
func (s *ColumnService) Reorder(ctx context.Context, actorID uint64, boardID string, ids []string, positions []int) error {
	p := s.perms.GetUserPermissions(ctx, boardID, actorID)
	if !p.CanManage {
		return ErrAccessDenied
	}
	if errs := s.valid.ValidateReorder(ids, positions); len(errs) > 0 {
		return errs
	}
	if err := s.columns.UpdatePositions(ctx, boardID, ids, positions); err != nil {
		return err
	}
	s.cache.InvalidateBoardColumns(ctx, boardID)
	emit(ctx, s.events, queue.ActivityEvent{
		EntityType: queue.EntityColumn,
		EntityID:   boardID,
		BoardID:    boardID,
		Action:     queue.ActionReordered,
		ActorID:    actorID,
	})
	return nil
}
