package model

import "time"

// ColumnSettings is the JSON blob persisted in board_columns.settings.
type ColumnSettings struct {
    NotifyOnTaskAdd     bool   `json:"notify_on_task_add"`    // push a notification when a task enters this column
    MarkTasksDone       bool   `json:"mark_tasks_done"`       // tasks moved here have their status set to done
    DefaultTaskPriority string `json:"default_task_priority"` // priority applied to tasks created directly in this column
}

// Column represents an ordered lane within a board holding tasks.
// Position values are unique within a board; reordering rewrites all
// positions in one transaction. This struct corresponds to a row in
// the `board_columns` table (the table is not named `columns` to stay
// clear of the SQL keyword).
//
// Fields:
//  ID          – primary key identifier (UUID string).
//  BoardID     – owning board.
//  Title       – column title, unique within its board.
//  Color       – hex color used when rendering the column.
//  Position    – ordering key within the board, starting at 1.
//  WIPLimit    – maximum number of tasks, 0 means unlimited.
//  IsCollapsed – whether clients should render the column collapsed.
//  Settings    – JSON settings blob (see ColumnSettings).
//  CreatedAt   – timestamp when the column was created.
//  UpdatedAt   – timestamp of last update.
type Column struct {
    ID          string         // board_columns.id
    BoardID     string         // board_columns.board_id
    Title       string         // board_columns.title
    Color       string         // board_columns.color
    Position    int            // board_columns.position
    WIPLimit    int            // board_columns.wip_limit (0 = none)
    IsCollapsed bool           // board_columns.is_collapsed
    Settings    ColumnSettings // board_columns.settings (JSON)
    CreatedAt   time.Time      // board_columns.created_at
    UpdatedAt   time.Time      // board_columns.updated_at
}

// ColumnCreate is the input payload for creating a column.
type ColumnCreate struct {
    BoardID  string          `json:"board_id"`
    Title    string          `json:"title"`
    Color    string          `json:"color"`
    WIPLimit int             `json:"wip_limit"`
    Settings *ColumnSettings `json:"settings"`
}

// ColumnUpdate is the partial-update payload for a column. Nil fields
// are left untouched by the repository.
type ColumnUpdate struct {
    Title       *string         `json:"title"`
    Color       *string         `json:"color"`
    WIPLimit    *int            `json:"wip_limit"`
    IsCollapsed *bool           `json:"is_collapsed"`
    Settings    *ColumnSettings `json:"settings"`
}
