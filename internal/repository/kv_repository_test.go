package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"studytracker/internal/db"
	"studytracker/internal/repository"
)

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

func TestKVRepositoryRoundTrip(t *testing.T) {
	exerciseKV(t, openTestRepository(t))
}

func TestMemoryKVRoundTrip(t *testing.T) {
	exerciseKV(t, repository.NewMemoryKV())
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	first, err := db.RunMigrations(database, migrationsDir())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("expected migrations to be applied on first run")
	}

	second, err := db.RunMigrations(database, migrationsDir())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no migrations on second run, got %v", second)
	}
}

func exerciseKV(t *testing.T, store kv) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(ctx, "pomodoroSession", []byte(`{"phase":"work"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "pomodoroSession", []byte(`{"phase":"break"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, err := store.Get(ctx, "pomodoroSession")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != `{"phase":"break"}` {
		t.Fatalf("unexpected value %s", value)
	}

	if err := store.Delete(ctx, "pomodoroSession"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "pomodoroSession"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "pomodoroSession"); err != nil {
		t.Fatalf("delete of missing key should succeed: %v", err)
	}
}

func openTestRepository(t *testing.T) *repository.KVRepository {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if _, err := db.RunMigrations(database, migrationsDir()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return repository.NewKVRepository(database)
}

func migrationsDir() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
}
