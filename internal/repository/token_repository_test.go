package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestTokenRefreshLifecycle(t *testing.T) {
	db := setupDB(t)
	uid := seedUser(t, db, "user@example.com")
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	exp := time.Now().UTC().Add(time.Hour)
	if err := tokens.StoreRefresh(ctx, uid, "hash-1", exp); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := tokens.ValidateRefresh(ctx, "hash-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != uid {
		t.Fatalf("user = %d, want %d", got, uid)
	}

	if err := tokens.RevokeByHash(ctx, "hash-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, "hash-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("revoked token validated: %v", err)
	}
}

func TestTokenValidateRejectsExpired(t *testing.T) {
	db := setupDB(t)
	uid := seedUser(t, db, "user@example.com")
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	if err := tokens.StoreRefresh(ctx, uid, "stale", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, "stale"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expired token validated: %v", err)
	}
}

func TestTokenValidateUnknownHash(t *testing.T) {
	db := setupDB(t)
	tokens := NewTokenRepo(db)

	if _, err := tokens.ValidateRefresh(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestTokenRevokeAllForUser(t *testing.T) {
	db := setupDB(t)
	uid := seedUser(t, db, "user@example.com")
	other := seedUser(t, db, "other@example.com")
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	exp := time.Now().UTC().Add(time.Hour)
	for _, h := range []string{"a", "b"} {
		if err := tokens.StoreRefresh(ctx, uid, h, exp); err != nil {
			t.Fatalf("store %s: %v", h, err)
		}
	}
	if err := tokens.StoreRefresh(ctx, other, "c", exp); err != nil {
		t.Fatalf("store c: %v", err)
	}

	if err := tokens.RevokeAllForUser(ctx, uid); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	for _, h := range []string{"a", "b"} {
		if _, err := tokens.ValidateRefresh(ctx, h); !errors.Is(err, sql.ErrNoRows) {
			t.Fatalf("token %s still valid: %v", h, err)
		}
	}
	// Other users keep their sessions.
	if _, err := tokens.ValidateRefresh(ctx, "c"); err != nil {
		t.Fatalf("unrelated token revoked: %v", err)
	}
}
