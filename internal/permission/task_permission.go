package permission

import (
	"context"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/repository"
)

// TaskPermissions is the derived permission record for one user and
// one task. Compared to boards it adds move and assign flags: members
// may move tasks they created or are assigned to, but may not delete
// other people's tasks or change assignments. That asymmetry keeps
// non-owners from destroying work while still letting assignees update
// their own status.
type TaskPermissions struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanMove   bool `json:"can_move"`
	CanAssign bool `json:"can_assign"`
}

func fullTaskPermissions() TaskPermissions {
	return TaskPermissions{CanView: true, CanEdit: true, CanDelete: true, CanMove: true, CanAssign: true}
}

// TaskPermissionService resolves task-level permissions. It needs one
// data point beyond the board resolver: whether the requesting user is
// listed as an assignee of the task.
type TaskPermissionService struct {
	users    *repository.UserRepo
	projects *repository.ProjectRepo
	tasks    *repository.TaskRepo
}

// NewTaskPermissionService constructs a resolver over the given
// repositories.
func NewTaskPermissionService(users *repository.UserRepo, projects *repository.ProjectRepo, tasks *repository.TaskRepo) *TaskPermissionService {
	return &TaskPermissionService{users: users, projects: projects, tasks: tasks}
}

// GetUserPermissions answers "what may this user do with this task".
// First match wins: system admin, project owner and project-role admin
// get everything. A member may view and edit; delete only if they
// created the task; move if they created it or are assigned to it;
// never assign. A viewer may only view. No role means no access.
// Fails closed on any lookup error.
func (s *TaskPermissionService) GetUserPermissions(ctx context.Context, taskID string, userID uint64) TaskPermissions {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return TaskPermissions{}
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return TaskPermissions{}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TaskPermissions{}
	}
	if user.Role == model.RoleAdmin {
		return fullTaskPermissions()
	}
	if project.OwnerID == userID {
		return fullTaskPermissions()
	}
	role, err := s.projects.GetMemberRole(ctx, project.ID, userID)
	if err != nil {
		return TaskPermissions{}
	}
	switch role {
	case model.ProjectRoleAdmin:
		return fullTaskPermissions()
	case model.ProjectRoleMember:
		isCreator := task.CreatedBy == userID
		isAssignee, err := s.tasks.IsAssignee(ctx, taskID, userID)
		if err != nil {
			return TaskPermissions{}
		}
		return TaskPermissions{
			CanView:   true,
			CanEdit:   true,
			CanDelete: isCreator,
			CanMove:   isCreator || isAssignee,
			CanAssign: false,
		}
	case model.ProjectRoleViewer:
		return TaskPermissions{CanView: true}
	}
	return TaskPermissions{}
}

// CanUserViewTask is a thin projection of GetUserPermissions.
func (s *TaskPermissionService) CanUserViewTask(ctx context.Context, taskID string, userID uint64) bool {
	return s.GetUserPermissions(ctx, taskID, userID).CanView
}

// CanUserEditTask is a thin projection of GetUserPermissions.
func (s *TaskPermissionService) CanUserEditTask(ctx context.Context, taskID string, userID uint64) bool {
	return s.GetUserPermissions(ctx, taskID, userID).CanEdit
}

// CanUserDeleteTask is a thin projection of GetUserPermissions.
func (s *TaskPermissionService) CanUserDeleteTask(ctx context.Context, taskID string, userID uint64) bool {
	return s.GetUserPermissions(ctx, taskID, userID).CanDelete
}
