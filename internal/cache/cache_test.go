package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/taskhub/kanban-api/internal/config"
	"github.com/taskhub/kanban-api/internal/model"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "kanban"})
}

func TestBoardRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.GetBoard(ctx, "b1"); ok {
		t.Fatal("hit on empty cache")
	}

	b := &model.Board{ID: "b1", ProjectID: "p1", Name: "Sprint 1", Settings: model.DefaultBoardSettings()}
	c.SetBoard(ctx, b)

	got, ok := c.GetBoard(ctx, "b1")
	if !ok {
		t.Fatal("miss after set")
	}
	if got.Name != "Sprint 1" || got.Settings != b.Settings {
		t.Fatalf("got %+v", got)
	}

	c.DeleteBoard(ctx, "b1")
	if _, ok := c.GetBoard(ctx, "b1"); ok {
		t.Fatal("hit after delete")
	}
}

func TestProjectBoardsRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	boards := []*model.Board{
		{ID: "b1", ProjectID: "p1", Name: "Alpha"},
		{ID: "b2", ProjectID: "p1", Name: "Beta"},
	}
	c.SetProjectBoards(ctx, "p1", boards)

	got, ok := c.GetProjectBoards(ctx, "p1")
	if !ok || len(got) != 2 || got[1].Name != "Beta" {
		t.Fatalf("got %v, %v", got, ok)
	}
	// Collections are cached per project.
	if _, ok := c.GetProjectBoards(ctx, "p2"); ok {
		t.Fatal("hit for other project")
	}

	c.InvalidateProjectBoards(ctx, "p1")
	if _, ok := c.GetProjectBoards(ctx, "p1"); ok {
		t.Fatal("hit after invalidation")
	}
}

func TestColumnAndTaskCollections(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	cols := []*model.Column{{ID: "c1", BoardID: "b1", Title: "To Do", Position: 1}}
	c.SetBoardColumns(ctx, "b1", cols)
	got, ok := c.GetBoardColumns(ctx, "b1")
	if !ok || len(got) != 1 || got[0].Title != "To Do" {
		t.Fatalf("columns: %v, %v", got, ok)
	}
	c.InvalidateBoardColumns(ctx, "b1")
	if _, ok := c.GetBoardColumns(ctx, "b1"); ok {
		t.Fatal("columns hit after invalidation")
	}

	tasks := []*model.Task{{ID: "t1", BoardID: "b1", Title: "Write docs", Tags: []string{}}}
	c.SetBoardTasks(ctx, "b1", tasks)
	gotTasks, ok := c.GetBoardTasks(ctx, "b1")
	if !ok || len(gotTasks) != 1 || gotTasks[0].Title != "Write docs" {
		t.Fatalf("tasks: %v, %v", gotTasks, ok)
	}
	c.InvalidateBoardTasks(ctx, "b1")
	if _, ok := c.GetBoardTasks(ctx, "b1"); ok {
		t.Fatal("tasks hit after invalidation")
	}
}

func TestEntriesExpire(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	c := New(rdb, config.CacheConfig{Enabled: true, TTL: time.Second, Prefix: "kanban"})
	ctx := context.Background()

	c.SetTask(ctx, &model.Task{ID: "t1", Title: "Ephemeral"})
	if _, ok := c.GetTask(ctx, "t1"); !ok {
		t.Fatal("miss before expiry")
	}
	srv.FastForward(2 * time.Second)
	if _, ok := c.GetTask(ctx, "t1"); ok {
		t.Fatal("hit after TTL")
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	for name, c := range map[string]*Cache{
		"nil client":      New(nil, config.CacheConfig{Enabled: true, TTL: time.Minute}),
		"disabled config": newDisabled(t),
		"nil cache":       nil,
	} {
		if c.Enabled() {
			t.Fatalf("%s: reports enabled", name)
		}
		c.SetBoard(ctx, &model.Board{ID: "b1"})
		if _, ok := c.GetBoard(ctx, "b1"); ok {
			t.Fatalf("%s: stored despite being disabled", name)
		}
		c.DeleteBoard(ctx, "b1")
		c.InvalidateProjectBoards(ctx, "p1")
		c.SetTask(ctx, &model.Task{ID: "t1"})
		if _, ok := c.GetTask(ctx, "t1"); ok {
			t.Fatalf("%s: task stored despite being disabled", name)
		}
		c.DeleteTask(ctx, "t1")
		c.InvalidateBoardColumns(ctx, "b1")
		c.InvalidateBoardTasks(ctx, "b1")
	}
}

func newDisabled(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, config.CacheConfig{Enabled: false, TTL: time.Minute})
}
