package model

import "time"

// Per-project membership roles stored in project_members.role. These
// are distinct from the system-wide user roles: a system "user" can be
// a project "admin" and vice versa. The project owner needs no
// membership row; ownership alone grants full rights.
const (
    ProjectRoleAdmin  = "admin"  // full rights on everything inside the project
    ProjectRoleMember = "member" // may view and edit, limited delete rights
    ProjectRoleViewer = "viewer" // read-only access
)

// ValidProjectRole reports whether s is one of the known project roles.
func ValidProjectRole(s string) bool {
    return s == ProjectRoleAdmin || s == ProjectRoleMember || s == ProjectRoleViewer
}

// Project represents a container for boards owned by a single user.
// Membership is a many-to-many relation to users with a per-project
// role attribute. This struct corresponds to a row in the `projects`
// table.
//
// Fields:
//  ID          – primary key identifier (UUID string).
//  Name        – human-friendly name of the project.
//  Description – optional free-text description.
//  Color       – hex color used by clients when rendering the project.
//  Icon        – short icon identifier chosen by the creator.
//  OwnerID     – user ID of the project creator and owner.
//  IsArchived  – whether the project has been archived.
//  ArchivedAt  – when the project was archived (null while active).
//  CreatedAt   – timestamp when the project was created.
//  UpdatedAt   – timestamp of last update.
type Project struct {
    ID          string     // projects.id
    Name        string     // projects.name
    Description string     // projects.description
    Color       string     // projects.color
    Icon        string     // projects.icon
    OwnerID     uint64     // projects.owner_id
    IsArchived  bool       // projects.is_archived
    ArchivedAt  *time.Time // projects.archived_at (nullable)
    CreatedAt   time.Time  // projects.created_at
    UpdatedAt   time.Time  // projects.updated_at
}

// ProjectMember represents a row in the `project_members` table,
// attaching one user to one project with a project-scoped role.
//
// Fields:
//  ProjectID – project the membership belongs to.
//  UserID    – member user id.
//  Role      – project role (admin, member or viewer).
//  AddedAt   – when the membership was created.
type ProjectMember struct {
    ProjectID string    // project_members.project_id
    UserID    uint64    // project_members.user_id
    Role      string    // project_members.role
    AddedAt   time.Time // project_members.added_at
}
