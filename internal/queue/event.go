// Package queue defines the domain event payloads exchanged over the
// message broker and the background consumer that turns them into the
// activity log.
package queue

// Entity type values carried in ActivityEvent.EntityType.
const (
    EntityProject = "project"
    EntityBoard   = "board"
    EntityColumn  = "column"
    EntityTask    = "task"
)

// Action values carried in ActivityEvent.Action.
const (
    ActionCreated    = "created"
    ActionUpdated    = "updated"
    ActionDeleted    = "deleted"
    ActionMoved      = "moved"
    ActionArchived   = "archived"
    ActionRestored   = "restored"
    ActionReordered  = "reordered"
    ActionAssigned   = "assigned"
    ActionUnassigned = "unassigned"
)

// ActivityEvent is published after every successful mutation. It
// carries enough information for downstream consumers to build an
// activity feed or audit trail without querying the primary database.
// Publishing is fire-and-forget: a lost event does not roll back the
// mutation that produced it.
type ActivityEvent struct {
    EntityType string         `json:"entity_type"`
    EntityID   string         `json:"entity_id"`
    EntityName string         `json:"entity_name"`
    ProjectID  string         `json:"project_id"`
    BoardID    string         `json:"board_id,omitempty"`
    Action     string         `json:"action"`
    ActorID    uint64         `json:"actor_id"`
    Changes    map[string]any `json:"changes,omitempty"`
    OccurredAt string         `json:"occurred_at"`
}
