package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newTransfer(source, target string, transferred int, at time.Time) *models.TransferResult {
	return &models.TransferResult{
		SourceID:         source,
		TargetID:         target,
		ItemsTotal:       250,
		ItemsTransferred: transferred,
		Batches:          3,
		BatchSize:        100,
		Timestamp:        at,
	}
}

func TestTransferRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		transfer := newTransfer("src", "dst", 100, base)
		transfer.Error = "batch 2 failed"

		if err := repo.Create(ctx, transfer); err != nil {
			t.Fatalf("failed to create transfer: %v", err)
		}
		if transfer.ID() == "" {
			t.Fatal("transfer ID should be set after creation")
		}

		got, err := repo.Get(ctx, transfer.ID())
		if err != nil {
			t.Fatalf("failed to get transfer: %v", err)
		}
		if got.SourceID != "src" || got.ItemsTransferred != 100 || got.BatchSize != 100 || got.Error != "batch 2 failed" {
			t.Errorf("unexpected transfer %+v", got)
		}
		if !got.Timestamp.Equal(base) {
			t.Errorf("expected timestamp %v, got %v", base, got.Timestamp)
		}
		if got.Complete() {
			t.Error("partial transfer should not be complete")
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		if err := repo.Create(ctx, newTransfer("", "dst", 0, base)); err == nil {
			t.Fatal("expected validation error for missing source")
		}
		if err := repo.Create(ctx, newTransfer("src", "dst", 300, base)); err == nil {
			t.Fatal("expected validation error for transferred > total")
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		_, err := repo.Get(ctx, "missing")
		if !shared.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		for i, pair := range [][2]string{{"a", "x"}, {"b", "x"}, {"a", "y"}} {
			if err := repo.Create(ctx, newTransfer(pair[0], pair[1], 250, base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("failed to create transfer: %v", err)
			}
		}

		tc := []struct {
			name     string
			criteria map[string]any
			want     int
		}{
			{"all", nil, 3},
			{"by source", map[string]any{"source_id": "a"}, 2},
			{"by target", map[string]any{"target_id": "x"}, 2},
			{"by both", map[string]any{"source_id": "a", "target_id": "y"}, 1},
			{"limit", map[string]any{"limit": 1}, 1},
			{"no match", map[string]any{"source_id": "z"}, 0},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(ctx, tt.criteria)
				if err != nil {
					t.Fatalf("failed to list transfers: %v", err)
				}
				if len(got) != tt.want {
					t.Errorf("expected %d transfers, got %d", tt.want, len(got))
				}
			})
		}

		all, _ := repo.List(ctx, nil)
		if all[0].SourceID != "a" || all[0].TargetID != "y" {
			t.Errorf("expected newest transfer first, got %+v", all[0])
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		transfer := newTransfer("src", "dst", 250, base)
		if err := repo.Create(ctx, transfer); err != nil {
			t.Fatalf("failed to create transfer: %v", err)
		}

		if err := repo.Delete(ctx, transfer.ID()); err != nil {
			t.Fatalf("failed to delete transfer: %v", err)
		}
		if _, err := repo.Get(ctx, transfer.ID()); !shared.IsNotFound(err) {
			t.Errorf("expected not found after delete, got %v", err)
		}
		if err := repo.Delete(ctx, transfer.ID()); !shared.IsNotFound(err) {
			t.Errorf("expected not found deleting twice, got %v", err)
		}
	})
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Save and Get", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}

		if err := repo.Save(ctx, "alice", token); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		got, err := repo.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "access" || got.RefreshToken != "refresh" || !got.Expiry.Equal(expiry) {
			t.Errorf("unexpected token %+v", got)
		}
	})

	t.Run("refresh keeps refresh token", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		_ = repo.Save(ctx, "alice", &oauth2.Token{AccessToken: "old", RefreshToken: "refresh"})

		if err := repo.Save(ctx, "alice", &oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatalf("failed to save refreshed token: %v", err)
		}

		got, _ := repo.Get(ctx, "alice")
		if got.AccessToken != "new" || got.RefreshToken != "refresh" {
			t.Errorf("unexpected token after refresh %+v", got)
		}
		if !got.Expiry.IsZero() {
			t.Errorf("expected zero expiry, got %v", got.Expiry)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nobody"); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected ErrNoCachedToken, got %v", err)
		}
		if err := repo.Delete(ctx, "nobody"); !errors.Is(err, shared.ErrNoCachedToken) {
			t.Errorf("expected ErrNoCachedToken on delete, got %v", err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if err := repo.Save(ctx, "", &oauth2.Token{AccessToken: "a"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := repo.Save(ctx, "alice", &oauth2.Token{}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Delete and Usernames", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		_ = repo.Save(ctx, "bob", &oauth2.Token{AccessToken: "b"})
		_ = repo.Save(ctx, "alice", &oauth2.Token{AccessToken: "a"})

		names, err := repo.Usernames(ctx)
		if err != nil || len(names) != 2 || names[0] != "alice" {
			t.Fatalf("unexpected usernames %v, %v", names, err)
		}

		if err := repo.Delete(ctx, "alice"); err != nil {
			t.Fatalf("failed to delete token: %v", err)
		}
		names, _ = repo.Usernames(ctx)
		if len(names) != 1 || names[0] != "bob" {
			t.Errorf("unexpected usernames after delete %v", names)
		}
	})

	t.Run("NewTokenSource writes back refreshed tokens", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		base := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fresh", RefreshToken: "r"})

		source := repo.NewTokenSource("alice", base, nil)
		if _, err := source.Token(); err != nil {
			t.Fatalf("failed to get token: %v", err)
		}

		got, err := repo.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("expected token to be cached: %v", err)
		}
		if got.AccessToken != "fresh" {
			t.Errorf("expected cached access token fresh, got %s", got.AccessToken)
		}
	})
}
