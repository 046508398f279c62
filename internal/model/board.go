package model

import "time"

// Board visibility values stored in boards.visibility. Visibility only
// widens access for non-members: a public board is viewable by any
// authenticated user, while private and team boards require a
// membership in the owning project.
const (
    VisibilityPrivate = "private"
    VisibilityTeam    = "team"
    VisibilityPublic  = "public"
)

// ValidVisibility reports whether s is one of the known visibilities.
func ValidVisibility(s string) bool {
    return s == VisibilityPrivate || s == VisibilityTeam || s == VisibilityPublic
}

// Titles of the four columns every new board is created with, in
// position order.
var DefaultColumnTitles = [4]string{"To Do", "In Progress", "Review", "Done"}

// BoardSettings is the JSON blob persisted in boards.settings. It
// carries per-board behaviour toggles that do not warrant their own
// columns.
type BoardSettings struct {
    AllowTaskCreation bool   `json:"allow_task_creation"` // whether non-managers may add tasks
    DefaultPriority   string `json:"default_priority"`    // priority applied to tasks created without one
    EnforceWIPLimits  bool   `json:"enforce_wip_limits"`  // reject moves into columns at their WIP limit
}

// DefaultBoardSettings returns the settings applied to a board created
// without an explicit settings payload.
func DefaultBoardSettings() BoardSettings {
    return BoardSettings{
        AllowTaskCreation: true,
        DefaultPriority:   PriorityMedium,
        EnforceWIPLimits:  false,
    }
}

// Board represents a kanban board belonging to exactly one project.
// Every board is created together with the four default columns. This
// struct corresponds to a row in the `boards` table.
//
// Fields:
//  ID          – primary key identifier (UUID string).
//  ProjectID   – owning project.
//  Name        – board name, unique within its project.
//  Description – optional free-text description.
//  Color       – hex color used when rendering the board.
//  Visibility  – private, team or public.
//  Settings    – JSON settings blob (see BoardSettings).
//  Position    – ordering key among sibling boards of the project.
//  CreatedBy   – user ID of the board creator.
//  IsArchived  – whether the board has been archived.
//  ArchivedAt  – when the board was archived (null while active).
//  CreatedAt   – timestamp when the board was created.
//  UpdatedAt   – timestamp of last update.
type Board struct {
    ID          string        // boards.id
    ProjectID   string        // boards.project_id
    Name        string        // boards.name
    Description string        // boards.description
    Color       string        // boards.color
    Visibility  string        // boards.visibility
    Settings    BoardSettings // boards.settings (JSON)
    Position    int           // boards.position
    CreatedBy   uint64        // boards.created_by
    IsArchived  bool          // boards.is_archived
    ArchivedAt  *time.Time    // boards.archived_at (nullable)
    CreatedAt   time.Time     // boards.created_at
    UpdatedAt   time.Time     // boards.updated_at
}

// BoardCreate is the input payload for creating a board. The
// validator checks it before any repository call; optional fields fall
// back to defaults when nil or empty.
type BoardCreate struct {
    ProjectID   string         `json:"project_id"`
    Name        string         `json:"name"`
    Description string         `json:"description"`
    Color       string         `json:"color"`
    Visibility  string         `json:"visibility"`
    Settings    *BoardSettings `json:"settings"`
}

// BoardUpdate is the partial-update payload for a board. Nil fields
// are left untouched by the repository.
type BoardUpdate struct {
    Name        *string        `json:"name"`
    Description *string        `json:"description"`
    Color       *string        `json:"color"`
    Visibility  *string        `json:"visibility"`
    Settings    *BoardSettings `json:"settings"`
}
