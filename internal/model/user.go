package model

import "time"

// System-wide roles stored in users.role. A user holds exactly one of
// these. The system role is always resolved before any per-project
// role; "admin" short-circuits every permission check.
const (
    RoleAdmin   = "admin"   // full access to every project and board
    RoleManager = "manager" // may create projects, no implicit entity rights
    RoleUser    = "user"    // regular account
)

// ValidSystemRole reports whether s is one of the known system roles.
func ValidSystemRole(s string) bool {
    return s == RoleAdmin || s == RoleManager || s == RoleUser
}

// User represents an application user record as stored in the
// `users` table. Accounts are created unapproved at registration and
// must be approved by an admin before they can log in. Users are
// never hard-deleted in the normal flow; removing access flips
// IsActive off instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – system-wide role (admin, manager or user).
//  IsApproved   – whether an admin has approved the account.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsApproved   bool      // users.is_approved
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
