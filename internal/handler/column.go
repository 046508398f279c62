package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/kanban-api/internal/model"
	"github.com/taskhub/kanban-api/internal/service"
)

// ColumnHandler is a thin HTTP layer over ColumnService.
type ColumnHandler struct {
	Columns *service.ColumnService
}

func NewColumnHandler(s *service.ColumnService) *ColumnHandler {
	return &ColumnHandler{Columns: s}
}

// List handles GET /v1/boards/:id/columns.
func (h *ColumnHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cols, err := h.Columns.List(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"columns": cols})
}

// Get handles GET /v1/columns/:id.
func (h *ColumnHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	col, err := h.Columns.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

// Create handles POST /v1/columns.
func (h *ColumnHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.ColumnCreate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	col, err := h.Columns.Create(c.Request().Context(), uid, req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, col)
}

// Update handles PUT /v1/columns/:id.
func (h *ColumnHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req model.ColumnUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	col, err := h.Columns.Update(c.Request().Context(), uid, c.Param("id"), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

// Delete handles DELETE /v1/columns/:id.
func (h *ColumnHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Columns.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "column deleted"})
}

// Reorder handles PUT /v1/boards/:id/columns/reorder.
func (h *ColumnHandler) Reorder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reorderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Columns.Reorder(c.Request().Context(), uid, c.Param("id"), req.IDs, req.Positions); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "columns reordered"})
}
