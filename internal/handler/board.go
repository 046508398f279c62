package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/service"
)

// BoardHandler is a thin HTTP layer over BoardService. It binds and
// parses; the service owns permissions, validation and side effects.
type BoardHandler struct {
	Boards *service.BoardService
}

func NewBoardHandler(s *service.BoardService) *BoardHandler {
	return &BoardHandler{Boards: s}
}

// Create handles POST /v1/boards.
func (h *BoardHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.BoardCreate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	b, err := h.Boards.Create(c.Request().Context(), uid, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Get handles GET /v1/boards/:id.
func (h *BoardHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Boards.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Permissions handles GET /v1/boards/:id/permissions so clients can
// grey out actions the caller may not perform.
func (h *BoardHandler) Permissions(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	p := h.Boards.Permissions(c.Request().Context(), uid, c.Param("id"))
	return c.JSON(http.StatusOK, p)
}

// ListForProject handles GET /v1/projects/:id/boards.
func (h *BoardHandler) ListForProject(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	includeArchived := c.QueryParam("include_archived") == "true"
	bs, err := h.Boards.ListForProject(c.Request().Context(), uid, c.Param("id"), includeArchived)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"boards": bs})
}

// Search handles GET /v1/boards with filter, sort and pagination query
// parameters.
func (h *BoardHandler) Search(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	f := repository.BoardFilter{
		ProjectID:       c.QueryParam("project_id"),
		Visibility:      c.QueryParam("visibility"),
		Search:          c.QueryParam("q"),
		IncludeArchived: c.QueryParam("include_archived") == "true",
	}
	sort := repository.Sort{
		Field: c.QueryParam("sort"),
		Desc:  c.QueryParam("order") == "desc",
	}
	page := parsePage(c)
	bs, total, err := h.Boards.Search(c.Request().Context(), uid, f, sort, page)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"boards": bs, "total": total})
}

// parsePage reads page/page_size query parameters; zero values disable
// pagination.
func parsePage(c echo.Context) repository.Page {
	n, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return repository.Page{Number: n, Size: size}
}

// Update handles PUT /v1/boards/:id.
func (h *BoardHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.BoardUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	b, err := h.Boards.Update(c.Request().Context(), uid, c.Param("id"), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /v1/boards/:id.
func (h *BoardHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Boards.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "board deleted"})
}

// SetArchived returns a handler for POST /v1/boards/:id/archive and
// .../restore.
func (h *BoardHandler) SetArchived(archived bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		b, err := h.Boards.SetArchived(c.Request().Context(), uid, c.Param("id"), archived)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

// Reorder handles PUT /v1/projects/:id/boards/reorder.
func (h *BoardHandler) Reorder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reorderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Boards.Reorder(c.Request().Context(), uid, c.Param("id"), req.IDs, req.Positions); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "boards reordered"})
}
