package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/service"
)

// TaskHandler is a thin HTTP layer over TaskService.
type TaskHandler struct {
	Tasks *service.TaskService
}

func NewTaskHandler(s *service.TaskService) *TaskHandler {
	return &TaskHandler{Tasks: s}
}

// Create handles POST /v1/tasks.
func (h *TaskHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.TaskCreate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := h.Tasks.Create(c.Request().Context(), uid, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Get handles GET /v1/tasks/:id.
func (h *TaskHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, err := h.Tasks.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Permissions handles GET /v1/tasks/:id/permissions.
func (h *TaskHandler) Permissions(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p := h.Tasks.Permissions(c.Request().Context(), uid, c.Param("id"))
	return c.JSON(http.StatusOK, p)
}

// ListForBoard handles GET /v1/boards/:id/tasks.
func (h *TaskHandler) ListForBoard(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	includeArchived := c.QueryParam("include_archived") == "true"
	ts, err := h.Tasks.ListForBoard(c.Request().Context(), uid, c.Param("id"), includeArchived)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": ts})
}

// Search handles GET /v1/tasks with filter, sort and pagination query
// parameters. board_id is required.
func (h *TaskHandler) Search(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var assignee uint64
	if v := c.QueryParam("assignee_id"); v != "" {
		assignee, _ = strconv.ParseUint(v, 10, 64)
	}
	f := repository.TaskFilter{
		BoardID:         c.QueryParam("board_id"),
		ColumnID:        c.QueryParam("column_id"),
		Status:          c.QueryParam("status"),
		Priority:        c.QueryParam("priority"),
		AssigneeID:      assignee,
		Search:          c.QueryParam("q"),
		IncludeArchived: c.QueryParam("include_archived") == "true",
	}
	sort := repository.Sort{
		Field: c.QueryParam("sort"),
		Desc:  c.QueryParam("order") == "desc",
	}
	ts, total, err := h.Tasks.Search(c.Request().Context(), uid, f, sort, parsePage(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": ts, "total": total})
}

// Update handles PUT /v1/tasks/:id.
func (h *TaskHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.TaskUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := h.Tasks.Update(c.Request().Context(), uid, c.Param("id"), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Move handles POST /v1/tasks/:id/move.
func (h *TaskHandler) Move(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		ColumnID string `json:"column_id"`
	}
	if err := c.Bind(&req); err != nil || req.ColumnID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "column_id required"})
	}
	t, err := h.Tasks.Move(c.Request().Context(), uid, c.Param("id"), req.ColumnID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/tasks/:id.
func (h *TaskHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Tasks.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

// SetArchived returns a handler for POST /v1/tasks/:id/archive and
// .../restore.
func (h *TaskHandler) SetArchived(archived bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		t, err := h.Tasks.SetArchived(c.Request().Context(), uid, c.Param("id"), archived)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

// Assign handles POST /v1/tasks/:id/assignees.
func (h *TaskHandler) Assign(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	t, err := h.Tasks.Assign(c.Request().Context(), uid, c.Param("id"), req.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Unassign handles DELETE /v1/tasks/:id/assignees/:userID.
func (h *TaskHandler) Unassign(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	t, err := h.Tasks.Unassign(c.Request().Context(), uid, c.Param("id"), target)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Reorder handles PUT /v1/columns/:id/tasks/reorder.
func (h *TaskHandler) Reorder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reorderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Tasks.Reorder(c.Request().Context(), uid, c.Param("id"), req.IDs, req.Positions); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "tasks reordered"})
}
