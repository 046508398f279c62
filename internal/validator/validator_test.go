package validator

import (
	"strings"
	"testing"

	"github.com/taskhub/kanban-api/internal/model"
)

// hasCode reports whether the result contains an error for the field
// with the given code.
func hasCode(errs ValidationErrors, field, code string) bool {
	for _, fe := range errs {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

func TestBoardValidateCreate(t *testing.T) {
	v := NewBoardValidator()
	tests := []struct {
		name  string
		in    model.BoardCreate
		field string
		code  string // empty means valid
	}{
		{"valid", model.BoardCreate{ProjectID: "p1", Name: "Sprint 1"}, "", ""},
		{"valid with all fields", model.BoardCreate{
			ProjectID: "p1", Name: "Sprint 1", Description: "backlog grooming",
			Color: "#a1b2c3", Visibility: model.VisibilityPublic,
			Settings: &model.BoardSettings{DefaultPriority: model.PriorityHigh},
		}, "", ""},
		{"missing project", model.BoardCreate{Name: "Sprint 1"}, "project_id", CodeRequired},
		{"missing name", model.BoardCreate{ProjectID: "p1"}, "name", CodeRequired},
		{"blank name", model.BoardCreate{ProjectID: "p1", Name: "   "}, "name", CodeRequired},
		{"name too short", model.BoardCreate{ProjectID: "p1", Name: "A"}, "name", CodeTooShort},
		{"name too long", model.BoardCreate{ProjectID: "p1", Name: strings.Repeat("x", 101)}, "name", CodeTooLong},
		{"name with markup", model.BoardCreate{ProjectID: "p1", Name: "<script>"}, "name", CodeInvalidFormat},
		{"description too long", model.BoardCreate{
			ProjectID: "p1", Name: "Sprint 1", Description: strings.Repeat("x", 1001)}, "description", CodeTooLong},
		{"bad color", model.BoardCreate{ProjectID: "p1", Name: "Sprint 1", Color: "red"}, "color", CodeInvalidFormat},
		{"short hex color ok", model.BoardCreate{ProjectID: "p1", Name: "Sprint 1", Color: "#abc"}, "", ""},
		{"bad visibility", model.BoardCreate{ProjectID: "p1", Name: "Sprint 1", Visibility: "secret"}, "visibility", CodeInvalidValue},
		{"bad default priority", model.BoardCreate{
			ProjectID: "p1", Name: "Sprint 1",
			Settings: &model.BoardSettings{DefaultPriority: "asap"},
		}, "settings.default_priority", CodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateCreate(tt.in)
			if tt.code == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if !hasCode(errs, tt.field, tt.code) {
				t.Fatalf("want %s on %s, got %v", tt.code, tt.field, errs)
			}
		})
	}
}

func TestBoardValidateUpdateOnlyChecksSuppliedFields(t *testing.T) {
	v := NewBoardValidator()

	// A fully empty payload never fails validation.
	if errs := v.ValidateUpdate(model.BoardUpdate{}); len(errs) != 0 {
		t.Fatalf("empty update: %v", errs)
	}

	bad := "x"
	errs := v.ValidateUpdate(model.BoardUpdate{Name: &bad})
	if !hasCode(errs, "name", CodeTooShort) {
		t.Fatalf("got %v", errs)
	}
	// The same payload run twice yields the same result.
	again := v.ValidateUpdate(model.BoardUpdate{Name: &bad})
	if len(again) != len(errs) || again[0] != errs[0] {
		t.Fatalf("validation not repeatable: %v vs %v", errs, again)
	}
}

func TestColumnValidateCreate(t *testing.T) {
	v := NewColumnValidator()
	tests := []struct {
		name  string
		in    model.ColumnCreate
		field string
		code  string
	}{
		{"valid", model.ColumnCreate{BoardID: "b1", Title: "Blocked"}, "", ""},
		{"missing board", model.ColumnCreate{Title: "Blocked"}, "board_id", CodeRequired},
		{"title too short", model.ColumnCreate{BoardID: "b1", Title: "B"}, "title", CodeTooShort},
		{"negative wip limit", model.ColumnCreate{BoardID: "b1", Title: "Blocked", WIPLimit: -1}, "wip_limit", CodeNegative},
		{"bad settings priority", model.ColumnCreate{
			BoardID: "b1", Title: "Blocked",
			Settings: &model.ColumnSettings{DefaultTaskPriority: "whenever"},
		}, "settings.default_task_priority", CodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateCreate(tt.in)
			if tt.code == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if !hasCode(errs, tt.field, tt.code) {
				t.Fatalf("want %s on %s, got %v", tt.code, tt.field, errs)
			}
		})
	}
}

func TestTaskValidateCreate(t *testing.T) {
	v := NewTaskValidator()
	tests := []struct {
		name  string
		in    model.TaskCreate
		field string
		code  string
	}{
		{"valid", model.TaskCreate{BoardID: "b1", ColumnID: "c1", Title: "Write docs"}, "", ""},
		{"missing board", model.TaskCreate{ColumnID: "c1", Title: "Write docs"}, "board_id", CodeRequired},
		{"missing column", model.TaskCreate{BoardID: "b1", Title: "Write docs"}, "column_id", CodeRequired},
		{"bad status", model.TaskCreate{BoardID: "b1", ColumnID: "c1", Title: "Write docs", Status: "later"}, "status", CodeInvalidValue},
		{"bad priority", model.TaskCreate{BoardID: "b1", ColumnID: "c1", Title: "Write docs", Priority: "asap"}, "priority", CodeInvalidValue},
		{"negative hours", model.TaskCreate{BoardID: "b1", ColumnID: "c1", Title: "Write docs", EstimatedHours: -1}, "estimated_hours", CodeNegative},
		{"empty tag", model.TaskCreate{BoardID: "b1", ColumnID: "c1", Title: "Write docs", Tags: []string{""}}, "tags", CodeRequired},
		{"duplicate tag", model.TaskCreate{BoardID: "b1", ColumnID: "c1", Title: "Write docs", Tags: []string{"a", "a"}}, "tags", CodeDuplicate},
		{"tag too long", model.TaskCreate{
			BoardID: "b1", ColumnID: "c1", Title: "Write docs", Tags: []string{strings.Repeat("x", 51)}}, "tags", CodeTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateCreate(tt.in)
			if tt.code == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if !hasCode(errs, tt.field, tt.code) {
				t.Fatalf("want %s on %s, got %v", tt.code, tt.field, errs)
			}
		})
	}
}

func TestTaskValidateUpdateHours(t *testing.T) {
	v := NewTaskValidator()

	neg := -0.5
	errs := v.ValidateUpdate(model.TaskUpdate{ActualHours: &neg})
	if !hasCode(errs, "actual_hours", CodeNegative) {
		t.Fatalf("got %v", errs)
	}
	zero := 0.0
	if errs := v.ValidateUpdate(model.TaskUpdate{ActualHours: &zero, EstimatedHours: &zero}); len(errs) != 0 {
		t.Fatalf("zero hours rejected: %v", errs)
	}
}

func TestValidateReorder(t *testing.T) {
	tests := []struct {
		name      string
		ids       []string
		positions []int
		field     string
		code      string
	}{
		{"valid", []string{"a", "b"}, []int{2, 1}, "", ""},
		{"empty", nil, nil, "ids", CodeRequired},
		{"length mismatch", []string{"a", "b"}, []int{1}, "positions", CodeMismatch},
		{"duplicate id", []string{"a", "a"}, []int{1, 2}, "ids", CodeDuplicate},
		{"duplicate position", []string{"a", "b"}, []int{1, 1}, "positions", CodeDuplicate},
		{"negative position", []string{"a"}, []int{-1}, "positions", CodeNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateReorder(tt.ids, tt.positions)
			if tt.code == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if !hasCode(errs, tt.field, tt.code) {
				t.Fatalf("want %s on %s, got %v", tt.code, tt.field, errs)
			}
		})
	}
}

func TestValidateReorderStopsAtLengthMismatch(t *testing.T) {
	// On a length mismatch the element checks are skipped; pairing ids
	// with positions would be meaningless.
	errs := ValidateReorder([]string{"a", "a"}, []int{1})
	if len(errs) != 1 || errs[0].Code != CodeMismatch {
		t.Fatalf("got %v, want only the mismatch error", errs)
	}
}
