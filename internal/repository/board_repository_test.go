package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/taskhub/kanban-api/internal/model"
)

// Every new board starts with the same four columns in a fixed order.
func TestBoardCreateSeedsDefaultColumns(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	columns := NewColumnRepo(db)
	ctx := context.Background()

	b := seedBoard(t, db, p.ID, owner, "Sprint 1")

	cols, err := columns.ListByBoard(ctx, b.ID)
	if err != nil {
		t.Fatalf("list columns: %v", err)
	}
	if len(cols) != len(model.DefaultColumnTitles) {
		t.Fatalf("got %d columns, want %d", len(cols), len(model.DefaultColumnTitles))
	}
	for i, want := range model.DefaultColumnTitles {
		if cols[i].Title != want {
			t.Fatalf("column[%d] = %q, want %q", i, cols[i].Title, want)
		}
		if cols[i].Position != i+1 {
			t.Fatalf("column %q at position %d, want %d", cols[i].Title, cols[i].Position, i+1)
		}
	}
}

func TestBoardCreateAssignsNextPosition(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)

	first := seedBoard(t, db, p.ID, owner, "First")
	second := seedBoard(t, db, p.ID, owner, "Second")
	if first.Position != 1 || second.Position != 2 {
		t.Fatalf("positions = %d, %d, want 1, 2", first.Position, second.Position)
	}
}

func TestBoardFindByID(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	boards := NewBoardRepo(db)
	ctx := context.Background()

	b := seedBoard(t, db, p.ID, owner, "Sprint 1")
	got, err := boards.FindByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "Sprint 1" || got.Visibility != model.VisibilityTeam {
		t.Fatalf("got %+v", got)
	}
	// Settings survive the JSON round trip through the settings column.
	if got.Settings != model.DefaultBoardSettings() {
		t.Fatalf("settings = %+v, want defaults", got.Settings)
	}

	if _, err := boards.FindByID(ctx, "missing"); !errors.Is(err, ErrBoardNotFound) {
		t.Fatalf("err = %v, want ErrBoardNotFound", err)
	}
}

func TestBoardPartialUpdate(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	boards := NewBoardRepo(db)
	ctx := context.Background()

	b := seedBoard(t, db, p.ID, owner, "Sprint 1")

	name := "Sprint 1 (renamed)"
	if err := boards.Update(ctx, b.ID, model.BoardUpdate{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := boards.FindByID(ctx, b.ID)
	if got.Name != name {
		t.Fatalf("name = %q, want %q", got.Name, name)
	}
	// Untouched fields keep their values.
	if got.Visibility != b.Visibility || got.Color != b.Color {
		t.Fatalf("unrelated fields changed: %+v", got)
	}

	// An empty payload is a no-op, not an error.
	if err := boards.Update(ctx, b.ID, model.BoardUpdate{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}

	// Re-submitting the current values must not read as not-found.
	// Against MySQL this relies on clientFoundRows in the DSN.
	if err := boards.Update(ctx, b.ID, model.BoardUpdate{Name: &name}); err != nil {
		t.Fatalf("same-values update: %v", err)
	}

	if err := boards.Update(ctx, "missing", model.BoardUpdate{Name: &name}); !errors.Is(err, ErrBoardNotFound) {
		t.Fatalf("err = %v, want ErrBoardNotFound", err)
	}
}

func TestBoardExistsByName(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	other := seedProject(t, db, owner)
	boards := NewBoardRepo(db)
	ctx := context.Background()

	b := seedBoard(t, db, p.ID, owner, "Sprint 1")

	exists, err := boards.ExistsByName(ctx, p.ID, "Sprint 1", "")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected match in same project")
	}

	// Uniqueness is scoped to the project.
	exists, _ = boards.ExistsByName(ctx, other.ID, "Sprint 1", "")
	if exists {
		t.Fatal("name leaked across projects")
	}

	// Excluding the board itself lets updates keep their own name.
	exists, _ = boards.ExistsByName(ctx, p.ID, "Sprint 1", b.ID)
	if exists {
		t.Fatal("board conflicts with itself")
	}
}

func TestBoardList(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	boards := NewBoardRepo(db)
	ctx := context.Background()

	seedBoard(t, db, p.ID, owner, "Alpha")
	beta := seedBoard(t, db, p.ID, owner, "Beta release")
	seedBoard(t, db, p.ID, owner, "Gamma")
	if err := boards.SetArchived(ctx, beta.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	// Archived boards are hidden by default.
	got, total, err := boards.List(ctx, BoardFilter{ProjectID: p.ID}, Sort{}, Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("total = %d len = %d, want 2", total, len(got))
	}

	got, total, err = boards.List(ctx, BoardFilter{ProjectID: p.ID, IncludeArchived: true}, Sort{}, Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	// Substring search on the name.
	got, total, err = boards.List(ctx, BoardFilter{ProjectID: p.ID, Search: "amm"}, Sort{}, Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || got[0].Name != "Gamma" {
		t.Fatalf("search got %d results", total)
	}

	// Pagination: total counts all matches, the page is narrower.
	got, total, err = boards.List(ctx, BoardFilter{ProjectID: p.ID, IncludeArchived: true}, Sort{Field: "name"}, Page{Number: 1, Size: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(got) != 2 {
		t.Fatalf("total = %d len = %d, want 3 and 2", total, len(got))
	}
	if got[0].Name != "Alpha" || got[1].Name != "Beta release" {
		t.Fatalf("page 1 = %q, %q", got[0].Name, got[1].Name)
	}
}

func TestBoardUpdatePositions(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	boards := NewBoardRepo(db)
	ctx := context.Background()

	a := seedBoard(t, db, p.ID, owner, "A")
	b := seedBoard(t, db, p.ID, owner, "B")

	if err := boards.UpdatePositions(ctx, p.ID, []string{a.ID, b.ID}, []int{2, 1}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got, err := boards.ListByProject(ctx, p.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatal("order not swapped")
	}

	// A bad id rolls back the whole batch.
	if err := boards.UpdatePositions(ctx, p.ID, []string{a.ID, "missing"}, []int{5, 6}); err == nil {
		t.Fatal("expected error for unknown id")
	}
	got, _ = boards.ListByProject(ctx, p.ID, false)
	if got[0].ID != b.ID || got[0].Position != 1 {
		t.Fatal("failed batch leaked a position change")
	}
}

func TestBoardDeleteCascades(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	boards := NewBoardRepo(db)
	tasks := NewTaskRepo(db)
	ctx := context.Background()

	keep := seedBoard(t, db, p.ID, owner, "Keep")
	doomed := seedBoard(t, db, p.ID, owner, "Doomed")
	col := firstColumn(t, db, doomed.ID)
	task := seedTask(t, db, doomed.ID, col.ID, owner, "Orphan-to-be")
	if err := tasks.AddAssignee(ctx, task.ID, owner); err != nil {
		t.Fatalf("assign: %v", err)
	}
	seedTask(t, db, keep.ID, firstColumn(t, db, keep.ID).ID, owner, "Survivor")

	if err := boards.Delete(ctx, doomed.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := boards.FindByID(ctx, doomed.ID); !errors.Is(err, ErrBoardNotFound) {
		t.Fatalf("board still present: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM tasks WHERE board_id = ?", doomed.ID).Scan(&n); err != nil || n != 0 {
		t.Fatalf("tasks left: %d (%v)", n, err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM board_columns WHERE board_id = ?", doomed.ID).Scan(&n); err != nil || n != 0 {
		t.Fatalf("columns left: %d (%v)", n, err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM task_assignees").Scan(&n); err != nil || n != 0 {
		t.Fatalf("assignee rows left: %d (%v)", n, err)
	}

	// The sibling board is untouched.
	if _, err := boards.FindByID(ctx, keep.ID); err != nil {
		t.Fatalf("sibling gone: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM tasks WHERE board_id = ?", keep.ID).Scan(&n); err != nil || n != 1 {
		t.Fatalf("sibling tasks = %d, want 1", n)
	}
}

func TestBoardArchiveRestore(t *testing.T) {
	db := setupDB(t)
	owner := seedUser(t, db, "owner@example.com")
	p := seedProject(t, db, owner)
	boards := NewBoardRepo(db)
	ctx := context.Background()

	b := seedBoard(t, db, p.ID, owner, "Sprint 1")

	if err := boards.SetArchived(ctx, b.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, _ := boards.FindByID(ctx, b.ID)
	if !got.IsArchived || got.ArchivedAt == nil {
		t.Fatal("archive flags not set")
	}

	if err := boards.SetArchived(ctx, b.ID, false); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, _ = boards.FindByID(ctx, b.ID)
	if got.IsArchived || got.ArchivedAt != nil {
		t.Fatal("restore did not clear flags")
	}
}
