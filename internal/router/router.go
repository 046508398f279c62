// Package router wires HTTP routes to their handlers. Route
// registration is split by concern: health, auth and the protected
// API. Handlers carry no routing knowledge of their own.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/taskhub/kanban-api/internal/handler"
	"github.com/taskhub/kanban-api/internal/middleware"
	"github.com/taskhub/kanban-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register, login
// and refresh are open; logout and me require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1/auth", middleware.JWTAuth(jwtSecret))
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// API bundles the handlers the protected route tree needs.
type API struct {
	Admin    *handler.AdminHandler
	Projects *handler.ProjectHandler
	Boards   *handler.BoardHandler
	Columns  *handler.ColumnHandler
	Tasks    *handler.TaskHandler
	WS       *handler.WSHandler
}

// RegisterAPI registers every protected endpoint under /v1. All
// routes require a valid JWT with a known system role; fine-grained
// permissions are resolved per entity inside the services. extra
// middleware (rate limiting) is applied when provided.
func RegisterAPI(e *echo.Echo, api API, jwtSecret string, extra ...echo.MiddlewareFunc) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleUser))
	for _, m := range extra {
		v1.Use(m)
	}

	// Admin-only user management.
	admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", api.Admin.ListUsers)
	admin.POST("/users/:id/approve", api.Admin.ApproveUser)
	admin.PUT("/users/:id/role", api.Admin.SetUserRole)
	admin.DELETE("/users/:id", api.Admin.DeactivateUser)

	// Projects and membership.
	v1.POST("/projects", api.Projects.Create)
	v1.GET("/projects", api.Projects.List)
	v1.GET("/projects/:id", api.Projects.Get)
	v1.PUT("/projects/:id", api.Projects.Update)
	v1.DELETE("/projects/:id", api.Projects.Delete)
	v1.POST("/projects/:id/archive", api.Projects.SetArchived(true))
	v1.POST("/projects/:id/restore", api.Projects.SetArchived(false))
	v1.GET("/projects/:id/members", api.Projects.ListMembers)
	v1.POST("/projects/:id/members", api.Projects.AddMember)
	v1.PUT("/projects/:id/members/:userID", api.Projects.UpdateMember)
	v1.DELETE("/projects/:id/members/:userID", api.Projects.RemoveMember)

	// Boards.
	v1.GET("/boards", api.Boards.Search)
	v1.POST("/boards", api.Boards.Create)
	v1.GET("/boards/:id", api.Boards.Get)
	v1.PUT("/boards/:id", api.Boards.Update)
	v1.DELETE("/boards/:id", api.Boards.Delete)
	v1.GET("/boards/:id/permissions", api.Boards.Permissions)
	v1.POST("/boards/:id/archive", api.Boards.SetArchived(true))
	v1.POST("/boards/:id/restore", api.Boards.SetArchived(false))
	v1.GET("/projects/:id/boards", api.Boards.ListForProject)
	v1.PUT("/projects/:id/boards/reorder", api.Boards.Reorder)

	// Columns.
	v1.POST("/columns", api.Columns.Create)
	v1.GET("/columns/:id", api.Columns.Get)
	v1.PUT("/columns/:id", api.Columns.Update)
	v1.DELETE("/columns/:id", api.Columns.Delete)
	v1.GET("/boards/:id/columns", api.Columns.List)
	v1.PUT("/boards/:id/columns/reorder", api.Columns.Reorder)

	// Tasks.
	v1.GET("/tasks", api.Tasks.Search)
	v1.POST("/tasks", api.Tasks.Create)
	v1.GET("/tasks/:id", api.Tasks.Get)
	v1.PUT("/tasks/:id", api.Tasks.Update)
	v1.DELETE("/tasks/:id", api.Tasks.Delete)
	v1.GET("/tasks/:id/permissions", api.Tasks.Permissions)
	v1.POST("/tasks/:id/move", api.Tasks.Move)
	v1.POST("/tasks/:id/archive", api.Tasks.SetArchived(true))
	v1.POST("/tasks/:id/restore", api.Tasks.SetArchived(false))
	v1.POST("/tasks/:id/assignees", api.Tasks.Assign)
	v1.DELETE("/tasks/:id/assignees/:userID", api.Tasks.Unassign)
	v1.GET("/boards/:id/tasks", api.Tasks.ListForBoard)
	v1.PUT("/columns/:id/tasks/reorder", api.Tasks.Reorder)

	// Live notification stream.
	v1.GET("/ws", api.WS.Serve)
}
