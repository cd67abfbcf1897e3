package shared

import (
	"path/filepath"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}

		if migrations[0].Name != "create_tokens" || migrations[1].Name != "create_transfers" {
			t.Errorf("unexpected migration names: %q, %q", migrations[0].Name, migrations[1].Name)
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("parseMigrationName", func(t *testing.T) {
		tc := []struct {
			file      string
			version   int
			name      string
			direction string
			ok        bool
		}{
			{"0000_create_tokens_up.sql", 0, "create_tokens", "up", true},
			{"0012_add_index_down.sql", 12, "add_index", "down", true},
			{"notes.sql", 0, "", "", false},
			{"abcd_create_up.sql", 0, "", "", false},
			{"0001_create_sideways.sql", 0, "", "", false},
		}

		for _, tt := range tc {
			t.Run(tt.file, func(t *testing.T) {
				version, name, direction, ok := parseMigrationName(tt.file)
				if ok != tt.ok {
					t.Fatalf("ok = %v, want %v", ok, tt.ok)
				}
				if !ok {
					return
				}
				if version != tt.version || name != tt.name || direction != tt.direction {
					t.Errorf("got (%d, %q, %q), want (%d, %q, %q)", version, name, direction, tt.version, tt.name, tt.direction)
				}
			})
		}
	})

	t.Run("splitStatements", func(t *testing.T) {
		script := "-- header\nCREATE TABLE a (id INTEGER);\n\n-- trailing\nCREATE INDEX i ON a(id); -- inline\n"
		stmts := splitStatements(script)
		if len(stmts) != 2 {
			t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
		}
		if stmts[0] != "CREATE TABLE a (id INTEGER)" {
			t.Errorf("unexpected first statement %q", stmts[0])
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"tokens", "transfers"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		applied, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("failed to list applied migrations: %v", err)
		}
		if len(applied) != 2 {
			t.Fatalf("expected 2 applied migrations, got %d", len(applied))
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM transfers LIMIT 1"); err == nil {
			t.Error("transfers table should be dropped after rollback")
		}
		if _, err := db.Exec("SELECT 1 FROM tokens LIMIT 1"); err != nil {
			t.Errorf("tokens table should survive a single rollback: %v", err)
		}

		applied, _ = AppliedMigrations(db)
		if len(applied) != 1 {
			t.Errorf("expected 1 applied migration after rollback, got %d", len(applied))
		}
	})

	t.Run("Rollback Without Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing has been applied")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}

func TestOpenCredentialCache(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		if _, err := OpenCredentialCache(DatabaseConfig{}); err == nil {
			t.Fatal("expected error for empty path")
		}
	})

	t.Run("creates file and schema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "spx.db")
		db, err := OpenCredentialCache(DatabaseConfig{Path: path, MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("failed to open cache: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM tokens LIMIT 1"); err != nil {
			t.Errorf("tokens table should exist: %v", err)
		}
	})
}
