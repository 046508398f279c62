package model

import "time"

// Task status values stored in tasks.status. Any status may follow
// any other; there is no enforced transition graph.
const (
    StatusTodo       = "todo"
    StatusInProgress = "in_progress"
    StatusReview     = "review"
    StatusDone       = "done"
    StatusBlocked    = "blocked"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s string) bool {
    switch s {
    case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
        return true
    }
    return false
}

// Task priority values stored in tasks.priority.
const (
    PriorityLow    = "low"
    PriorityMedium = "medium"
    PriorityHigh   = "high"
    PriorityUrgent = "urgent"
)

// ValidPriority reports whether s is one of the known priorities.
func ValidPriority(s string) bool {
    switch s {
    case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
        return true
    }
    return false
}

// Task represents a unit of work belonging to exactly one board and
// exactly one column. ProjectID and BoardID are denormalized onto the
// row for query convenience; the invariant that ColumnID references a
// column of BoardID is enforced by the repository on create and move.
// Assignees live in the `task_assignees` join table and are loaded
// separately.
//
// Fields:
//  ID             – primary key identifier (UUID string).
//  ProjectID      – owning project (denormalized).
//  BoardID        – owning board (denormalized).
//  ColumnID       – column the task currently sits in.
//  Title          – task title.
//  Description    – optional free-text description.
//  Status         – todo, in_progress, review, done or blocked.
//  Priority       – low, medium, high or urgent.
//  Tags           – free-form labels persisted as a JSON array.
//  Position       – ordering key within the column, starting at 1.
//  EstimatedHours – planned effort, 0 when unset.
//  ActualHours    – recorded effort, 0 when unset.
//  Deadline       – optional due timestamp.
//  CreatedBy      – user ID of the task creator.
//  Assignees      – user IDs assigned to the task.
//  IsArchived     – whether the task has been archived.
//  ArchivedAt     – when the task was archived (null while active).
//  CreatedAt      – timestamp when the task was created.
//  UpdatedAt      – timestamp of last update.
type Task struct {
    ID             string     // tasks.id
    ProjectID      string     // tasks.project_id
    BoardID        string     // tasks.board_id
    ColumnID       string     // tasks.column_id
    Title          string     // tasks.title
    Description    string     // tasks.description
    Status         string     // tasks.status
    Priority       string     // tasks.priority
    Tags           []string   // tasks.tags (JSON array)
    Position       int        // tasks.position
    EstimatedHours float64    // tasks.estimated_hours
    ActualHours    float64    // tasks.actual_hours
    Deadline       *time.Time // tasks.deadline (nullable)
    CreatedBy      uint64     // tasks.created_by
    Assignees      []uint64   // task_assignees.user_id rows
    IsArchived     bool       // tasks.is_archived
    ArchivedAt     *time.Time // tasks.archived_at (nullable)
    CreatedAt      time.Time  // tasks.created_at
    UpdatedAt      time.Time  // tasks.updated_at
}

// TaskCreate is the input payload for creating a task. Status,
// priority and position fall back to defaults when empty.
type TaskCreate struct {
    BoardID        string     `json:"board_id"`
    ColumnID       string     `json:"column_id"`
    Title          string     `json:"title"`
    Description    string     `json:"description"`
    Status         string     `json:"status"`
    Priority       string     `json:"priority"`
    Tags           []string   `json:"tags"`
    EstimatedHours float64    `json:"estimated_hours"`
    Deadline       *time.Time `json:"deadline"`
    Assignees      []uint64   `json:"assignees"`
}

// TaskUpdate is the partial-update payload for a task. Nil fields are
// left untouched by the repository.
type TaskUpdate struct {
    Title          *string    `json:"title"`
    Description    *string    `json:"description"`
    Status         *string    `json:"status"`
    Priority       *string    `json:"priority"`
    Tags           *[]string  `json:"tags"`
    EstimatedHours *float64   `json:"estimated_hours"`
    ActualHours    *float64   `json:"actual_hours"`
    Deadline       *time.Time `json:"deadline"`
}
