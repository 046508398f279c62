// Package cache provides an optional Redis-backed entity cache for
// boards, columns and tasks. Absence of a cache is a valid
// configuration: New tolerates a nil Redis client and every method is
// a no-op in that case, so services call through unconditionally.
//
// Writes invalidate (delete) the affected keys and never refresh them;
// the next read recomputes from the database. A stale read between an
// invalidation miss and the next write is possible and accepted.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskhub/kanban-api/internal/config"
	"github.com/taskhub/kanban-api/internal/model"
)

// Cache wraps the Redis client together with key prefix and TTL
// settings. The TTL is only a backstop; explicit invalidation is the
// primary mechanism.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// New builds a Cache from the client and config. It returns a cache
// that is disabled (all methods no-ops) when the client is nil or the
// config disables caching.
func New(rdb *redis.Client, cfg config.CacheConfig) *Cache {
	if !cfg.Enabled {
		rdb = nil
	}
	return &Cache{rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix}
}

// Enabled reports whether the cache is operational.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Cache) key(parts ...string) string {
	// Exported methods build keys before the Enabled check in
	// get/set/del runs, so a nil receiver must be tolerated here too.
	if c == nil {
		return ""
	}
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Errors are deliberately dropped; the cache is best effort.
	_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

func (c *Cache) del(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}

// GetBoard returns the cached board, if present.
func (c *Cache) GetBoard(ctx context.Context, id string) (*model.Board, bool) {
	var b model.Board
	if !c.get(ctx, c.key("board", id), &b) {
		return nil, false
	}
	return &b, true
}

// SetBoard stores a board under its id.
func (c *Cache) SetBoard(ctx context.Context, b *model.Board) {
	c.set(ctx, c.key("board", b.ID), b)
}

// DeleteBoard drops the cached board.
func (c *Cache) DeleteBoard(ctx context.Context, id string) {
	c.del(ctx, c.key("board", id))
}

// GetProjectBoards returns the cached board collection of a project.
func (c *Cache) GetProjectBoards(ctx context.Context, projectID string) ([]*model.Board, bool) {
	var boards []*model.Board
	if !c.get(ctx, c.key("boards", "project", projectID), &boards) {
		return nil, false
	}
	return boards, true
}

// SetProjectBoards stores a project's board collection.
func (c *Cache) SetProjectBoards(ctx context.Context, projectID string, boards []*model.Board) {
	c.set(ctx, c.key("boards", "project", projectID), boards)
}

// InvalidateProjectBoards drops the cached board collection of a
// project. Called after any board mutation inside the project.
func (c *Cache) InvalidateProjectBoards(ctx context.Context, projectID string) {
	c.del(ctx, c.key("boards", "project", projectID))
}

// GetBoardColumns returns the cached column collection of a board.
func (c *Cache) GetBoardColumns(ctx context.Context, boardID string) ([]*model.Column, bool) {
	var cols []*model.Column
	if !c.get(ctx, c.key("columns", "board", boardID), &cols) {
		return nil, false
	}
	return cols, true
}

// SetBoardColumns stores a board's column collection.
func (c *Cache) SetBoardColumns(ctx context.Context, boardID string, cols []*model.Column) {
	c.set(ctx, c.key("columns", "board", boardID), cols)
}

// InvalidateBoardColumns drops the cached column collection of a
// board.
func (c *Cache) InvalidateBoardColumns(ctx context.Context, boardID string) {
	c.del(ctx, c.key("columns", "board", boardID))
}

// GetTask returns the cached task, if present.
func (c *Cache) GetTask(ctx context.Context, id string) (*model.Task, bool) {
	var t model.Task
	if !c.get(ctx, c.key("task", id), &t) {
		return nil, false
	}
	return &t, true
}

// SetTask stores a task under its id.
func (c *Cache) SetTask(ctx context.Context, t *model.Task) {
	c.set(ctx, c.key("task", t.ID), t)
}

// DeleteTask drops the cached task.
func (c *Cache) DeleteTask(ctx context.Context, id string) {
	c.del(ctx, c.key("task", id))
}

// InvalidateBoardTasks drops the cached task collection of a board.
func (c *Cache) InvalidateBoardTasks(ctx context.Context, boardID string) {
	c.del(ctx, c.key("tasks", "board", boardID))
}

// GetBoardTasks returns the cached task collection of a board.
func (c *Cache) GetBoardTasks(ctx context.Context, boardID string) ([]*model.Task, bool) {
	var tasks []*model.Task
	if !c.get(ctx, c.key("tasks", "board", boardID), &tasks) {
		return nil, false
	}
	return tasks, true
}

// SetBoardTasks stores a board's task collection.
func (c *Cache) SetBoardTasks(ctx context.Context, boardID string, tasks []*model.Task) {
	c.set(ctx, c.key("tasks", "board", boardID), tasks)
}
