package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/taskhub/kanban-api/internal/cache"
	"github.com/taskhub/kanban-api/internal/config"
	"github.com/taskhub/kanban-api/internal/database"
	"github.com/taskhub/kanban-api/internal/handler"
	"github.com/taskhub/kanban-api/internal/middleware"
	"github.com/taskhub/kanban-api/internal/permission"
	"github.com/taskhub/kanban-api/internal/queue"
	"github.com/taskhub/kanban-api/internal/repository"
	"github.com/taskhub/kanban-api/internal/router"
	"github.com/taskhub/kanban-api/internal/service"
	"github.com/taskhub/kanban-api/internal/validator"
	"github.com/taskhub/kanban-api/internal/ws"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis is optional; a nil client disables caching and rate
	// limiting without affecting the rest of the service.
	rdb := config.NewRedisClient()
	entityCache := cache.New(rdb, config.LoadCacheConfig())

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	projects := repository.NewProjectRepo(db)
	boards := repository.NewBoardRepo(db)
	columns := repository.NewColumnRepo(db)
	tasks := repository.NewTaskRepo(db)

	// Permission resolvers and validators.
	boardPerms := permission.NewBoardPermissionService(users, projects, boards)
	taskPerms := permission.NewTaskPermissionService(users, projects, tasks)
	boardValid := validator.NewBoardValidator()
	columnValid := validator.NewColumnValidator()
	taskValid := validator.NewTaskValidator()

	// WebSocket hub for live notifications.
	hub := ws.NewHub()
	go hub.Run()

	// Event publishing and the activity log consumer. Both are
	// disabled without a broker URL. The consumer mirrors the
	// activity feed to connected websocket clients.
	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL)
		go queue.StartActivityConsumer(cfg.AMQPURL, hub.Broadcast)
	}

	// Service facades.
	boardSvc := service.NewBoardService(boards, projects, boardPerms, boardValid, entityCache, events, hub)
	columnSvc := service.NewColumnService(columns, boards, boardPerms, columnValid, entityCache, events)
	taskSvc := service.NewTaskService(tasks, columns, boards, taskPerms, boardPerms, taskValid, entityCache, events, hub)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)

	api := router.API{
		Admin:    handler.NewAdminHandler(users),
		Projects: handler.NewProjectHandler(projects, boardPerms, events, hub),
		Boards:   handler.NewBoardHandler(boardSvc),
		Columns:  handler.NewColumnHandler(columnSvc),
		Tasks:    handler.NewTaskHandler(taskSvc),
		WS:       handler.NewWSHandler(hub),
	}
	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled && rdb != nil {
		router.RegisterAPI(e, api, cfg.JWTSecret, middleware.NewTokenBucket(rlCfg, rdb))
	} else {
		router.RegisterAPI(e, api, cfg.JWTSecret)
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
