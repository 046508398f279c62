package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/service"
	"github.com/taskhub/kanban-api/internal/validator"
)

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// writeServiceError maps service and repository errors to HTTP
// responses. Validation failures carry the structured field list so a
// UI can highlight the offending inputs; everything else is a plain
// error message. Unknown errors become a 500 without leaking detail.
func writeServiceError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": verrs,
		})
	}
	switch {
	case errors.Is(err, service.ErrAccessDenied), errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	case errors.Is(err, repository.ErrProjectNotFound),
		errors.Is(err, repository.ErrBoardNotFound),
		errors.Is(err, repository.ErrColumnNotFound),
		errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// reorderReq is the shared payload of the reorder endpoints. ids and
// positions are parallel slices.
type reorderReq struct {
	IDs       []string `json:"ids"`
	Positions []int    `json:"positions"`
}
