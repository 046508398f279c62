// Package permission resolves what a user may do with boards and
// tasks. Resolvers are pure read-side functions over current state
// and fail closed: any lookup error or unknown state yields all-false
// permissions rather than an error.
//
// Resolution always checks the system-wide role before any project
// role; a system admin short-circuits to full permissions. After that
// the order is: project owner, project-role admin, member, viewer,
// then board visibility for outsiders.
package permission

import (
	"context"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/repository"
)

// BoardPermissions is the derived permission record for one user and
// one board. It is computed per request and never persisted.
type BoardPermissions struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanManage bool `json:"can_manage"`
}

func fullBoardPermissions() BoardPermissions {
	return BoardPermissions{CanView: true, CanEdit: true, CanDelete: true, CanManage: true}
}

// BoardPermissionService resolves board-level permissions from the
// user's system role, project ownership, project membership and board
// visibility.
type BoardPermissionService struct {
	users    *repository.UserRepo
	projects *repository.ProjectRepo
	boards   *repository.BoardRepo
}

// NewBoardPermissionService constructs a resolver over the given
// repositories.
func NewBoardPermissionService(users *repository.UserRepo, projects *repository.ProjectRepo, boards *repository.BoardRepo) *BoardPermissionService {
	return &BoardPermissionService{users: users, projects: projects, boards: boards}
}

// GetUserPermissions answers "what may this user do with this board".
// First match wins: system admin, project owner and project-role admin
// get everything; a member may view and edit, and delete only boards
// they created; a viewer may only view; a non-member may view public
// boards. Everything else, including any lookup failure, is all-false.
func (s *BoardPermissionService) GetUserPermissions(ctx context.Context, boardID string, userID uint64) BoardPermissions {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return BoardPermissions{}
	}
	project, err := s.projects.GetByID(ctx, board.ProjectID)
	if err != nil {
		return BoardPermissions{}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return BoardPermissions{}
	}
	if user.Role == model.RoleAdmin {
		return fullBoardPermissions()
	}
	if project.OwnerID == userID {
		return fullBoardPermissions()
	}
	role, err := s.projects.GetMemberRole(ctx, project.ID, userID)
	if err != nil {
		return BoardPermissions{}
	}
	switch role {
	case model.ProjectRoleAdmin:
		return fullBoardPermissions()
	case model.ProjectRoleMember:
		return BoardPermissions{
			CanView:   true,
			CanEdit:   true,
			CanDelete: board.CreatedBy == userID,
		}
	case model.ProjectRoleViewer:
		return BoardPermissions{CanView: true}
	}
	if board.Visibility == model.VisibilityPublic {
		return BoardPermissions{CanView: true}
	}
	return BoardPermissions{}
}

// CanUserCreateBoard reports whether the user may create a board in
// the project: system admins, the project owner and project-role
// admin/member may; viewers and non-members may not. Fails closed.
func (s *BoardPermissionService) CanUserCreateBoard(ctx context.Context, projectID string, userID uint64) bool {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	if user.Role == model.RoleAdmin {
		return true
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return false
	}
	if project.OwnerID == userID {
		return true
	}
	role, err := s.projects.GetMemberRole(ctx, projectID, userID)
	if err != nil {
		return false
	}
	return role == model.ProjectRoleAdmin || role == model.ProjectRoleMember
}

// CanUserManageProject reports whether the user may administer the
// project itself (membership, board ordering, archive): system
// admins, the owner and project-role admins. Fails closed.
func (s *BoardPermissionService) CanUserManageProject(ctx context.Context, projectID string, userID uint64) bool {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	if user.Role == model.RoleAdmin {
		return true
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return false
	}
	if project.OwnerID == userID {
		return true
	}
	role, err := s.projects.GetMemberRole(ctx, projectID, userID)
	if err != nil {
		return false
	}
	return role == model.ProjectRoleAdmin
}

// CanUserViewBoard is a thin projection of GetUserPermissions.
func (s *BoardPermissionService) CanUserViewBoard(ctx context.Context, boardID string, userID uint64) bool {
	return s.GetUserPermissions(ctx, boardID, userID).CanView
}

// CanUserEditBoard is a thin projection of GetUserPermissions.
func (s *BoardPermissionService) CanUserEditBoard(ctx context.Context, boardID string, userID uint64) bool {
	return s.GetUserPermissions(ctx, boardID, userID).CanEdit
}

// CanUserDeleteBoard is a thin projection of GetUserPermissions.
func (s *BoardPermissionService) CanUserDeleteBoard(ctx context.Context, boardID string, userID uint64) bool {
	return s.GetUserPermissions(ctx, boardID, userID).CanDelete
}
