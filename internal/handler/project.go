package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/permission"
	"github.com/taskhub/kanban-api/internal/queue"
	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/service"
	"github.com/taskhub/kanban-api/internal/ws"
)

// ProjectHandler exposes project CRUD and membership management. The
// creator becomes owner; owners, project admins and system admins
// manage members. Projects have no facade of their own since their
// rules fit in a handful of permission checks.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
	Perms    *permission.BoardPermissionService
	Events   service.EventPublisher
	Notifier service.Notifier
}

func NewProjectHandler(p *repository.ProjectRepo, perms *permission.BoardPermissionService, events service.EventPublisher, notifier service.Notifier) *ProjectHandler {
	return &ProjectHandler{Projects: p, Perms: perms, Events: events, Notifier: notifier}
}

type projectReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// Create handles POST /v1/projects. Any authenticated user may create
// a project and becomes its owner.
func (h *ProjectHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx := c.Request().Context()
	p := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		OwnerID:     uid,
	}
	if err := h.Projects.Create(ctx, p); err != nil {
		return writeServiceError(c, err)
	}
	if h.Events != nil {
		_ = h.Events.PublishActivity(ctx, queue.ActivityEvent{
			EntityType: queue.EntityProject,
			EntityID:   p.ID,
			EntityName: p.Name,
			ProjectID:  p.ID,
			Action:     queue.ActionCreated,
			ActorID:    uid,
		})
	}
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /v1/projects and returns the projects the caller
// owns or belongs to.
func (h *ProjectHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	out, err := h.Projects.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": out})
}

// Get handles GET /v1/projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	p, err := h.Projects.GetByID(ctx, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	if !h.canSee(c, p, uid) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	return c.JSON(http.StatusOK, p)
}

// canSee reports whether the user may read the project: owner, any
// member, or a system admin.
func (h *ProjectHandler) canSee(c echo.Context, p *model.Project, uid uint64) bool {
	if p.OwnerID == uid {
		return true
	}
	if h.Perms.CanUserManageProject(c.Request().Context(), p.ID, uid) {
		return true
	}
	role, err := h.Projects.GetMemberRole(c.Request().Context(), p.ID, uid)
	return err == nil && role != ""
}

// Update handles PUT /v1/projects/:id. Management rights required.
func (h *ProjectHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	ctx := c.Request().Context()
	if !h.Perms.CanUserManageProject(ctx, id, uid) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Projects.Update(ctx, id, req.Name, req.Description, req.Color, req.Icon); err != nil {
		return writeServiceError(c, err)
	}
	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	if h.Events != nil {
		_ = h.Events.PublishActivity(ctx, queue.ActivityEvent{
			EntityType: queue.EntityProject,
			EntityID:   p.ID,
			EntityName: p.Name,
			ProjectID:  p.ID,
			Action:     queue.ActionUpdated,
			ActorID:    uid,
		})
	}
	return c.JSON(http.StatusOK, p)
}

// SetArchived handles POST /v1/projects/:id/archive and .../restore.
func (h *ProjectHandler) SetArchived(archived bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		id := c.Param("id")
		ctx := c.Request().Context()
		if !h.Perms.CanUserManageProject(ctx, id, uid) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		if err := h.Projects.SetArchived(ctx, id, archived); err != nil {
			return writeServiceError(c, err)
		}
		p, err := h.Projects.GetByID(ctx, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		action := queue.ActionArchived
		if !archived {
			action = queue.ActionRestored
		}
		if h.Events != nil {
			_ = h.Events.PublishActivity(ctx, queue.ActivityEvent{
				EntityType: queue.EntityProject,
				EntityID:   p.ID,
				EntityName: p.Name,
				ProjectID:  p.ID,
				Action:     action,
				ActorID:    uid,
			})
		}
		return c.JSON(http.StatusOK, p)
	}
}

// Delete handles DELETE /v1/projects/:id. Only the owner or a system
// admin may delete, since this destroys every board and task inside.
func (h *ProjectHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	ctx := c.Request().Context()
	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	if p.OwnerID != uid && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	memberIDs, _ := h.Projects.ListMemberIDs(ctx, id)
	if err := h.Projects.Delete(ctx, id); err != nil {
		return writeServiceError(c, err)
	}
	if h.Events != nil {
		_ = h.Events.PublishActivity(ctx, queue.ActivityEvent{
			EntityType: queue.EntityProject,
			EntityID:   p.ID,
			EntityName: p.Name,
			ProjectID:  p.ID,
			Action:     queue.ActionDeleted,
			ActorID:    uid,
		})
	}
	if h.Notifier != nil && len(memberIDs) > 0 {
		recipients := memberIDs[:0:0]
		for _, m := range memberIDs {
			if m != uid {
				recipients = append(recipients, m)
			}
		}
		h.Notifier.Notify(recipients, ws.Notification{
			Type:       "project_deleted",
			EntityType: queue.EntityProject,
			EntityID:   p.ID,
			ProjectID:  p.ID,
			ActorID:    uid,
			Message:    fmt.Sprintf("Project %q was deleted", p.Name),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}

// isAdmin reads the system role the JWT middleware stored in the
// context.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

// ----- membership -----

type memberReq struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
}

// ListMembers handles GET /v1/projects/:id/members.
func (h *ProjectHandler) ListMembers(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	p, err := h.Projects.GetByID(ctx, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	if !h.canSee(c, p, uid) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	members, err := h.Projects.ListMembers(ctx, p.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"members": members})
}

// AddMember handles POST /v1/projects/:id/members. Adding an existing
// member updates their role instead.
func (h *ProjectHandler) AddMember(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	ctx := c.Request().Context()
	if !h.Perms.CanUserManageProject(ctx, id, uid) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	var req memberReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.ProjectRoleMember
	}
	if !model.ValidProjectRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	if err := h.Projects.AddMember(ctx, id, req.UserID, role); err != nil {
		return writeServiceError(c, err)
	}
	if h.Notifier != nil {
		h.Notifier.Notify([]uint64{req.UserID}, ws.Notification{
			Type:       "project_member_added",
			EntityType: queue.EntityProject,
			EntityID:   id,
			ProjectID:  id,
			ActorID:    uid,
			Message:    "You were added to a project",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member added"})
}

// UpdateMember handles PUT /v1/projects/:id/members/:userID and
// changes the member's project role. The target must already be a
// member; this never adds one.
func (h *ProjectHandler) UpdateMember(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	target, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	if !h.Perms.CanUserManageProject(ctx, id, uid) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	var req memberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !model.ValidProjectRole(role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	existing, err := h.Projects.GetMemberRole(ctx, id, target)
	if err != nil {
		return writeServiceError(c, err)
	}
	if existing == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
	}
	if err := h.Projects.AddMember(ctx, id, target, role); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member updated"})
}

// RemoveMember handles DELETE /v1/projects/:id/members/:userID.
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	target, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	// Members may leave on their own; removing anyone else needs
	// management rights.
	if target != uid && !h.Perms.CanUserManageProject(ctx, id, uid) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	if err := h.Projects.RemoveMember(ctx, id, target); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member removed"})
}
