package repository

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/linnington/esheets-assets/internal/database"
	"github.com/linnington/esheets-assets/internal/storage"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping sqlite test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "storage.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestStorageRepositoryRoundTrip(t *testing.T) {
	repo := NewStorageRepository(newTestDB(t), "classroom.example")

	if _, ok, err := repo.GetItem("missing"); err != nil || ok {
		t.Fatalf("GetItem(missing) = ok %v, err %v; want absent", ok, err)
	}

	if err := repo.SetItem("esheets.progress.v2", `{"a":{}}`); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := repo.SetItem("esheets.progress.v2", `{"b":{}}`); err != nil {
		t.Fatalf("SetItem() overwrite error = %v", err)
	}

	value, ok, err := repo.GetItem("esheets.progress.v2")
	if err != nil || !ok {
		t.Fatalf("GetItem() = ok %v, err %v", ok, err)
	}
	if value != `{"b":{}}` {
		t.Errorf("GetItem() = %v, want overwritten value", value)
	}
}

func TestStorageRepositoryOriginsAreIsolated(t *testing.T) {
	db := newTestDB(t)
	a := NewStorageRepository(db, "a.example")
	b := NewStorageRepository(db, "b.example")

	if err := a.SetItem("k", "from-a"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if _, ok, _ := b.GetItem("k"); ok {
		t.Error("origin b sees origin a's item")
	}
}

func TestStorageRepositorySetItems(t *testing.T) {
	repo := NewStorageRepository(newTestDB(t), "local")

	err := storage.SetItems(repo, map[string]string{
		"esheets.progress.v2": "{}",
		"esheets.identity.v2": `{"firstName":"Ada"}`,
	})
	if err != nil {
		t.Fatalf("SetItems() error = %v", err)
	}

	keys, err := repo.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"esheets.identity.v2", "esheets.progress.v2"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %v, want %v", i, keys[i], want[i])
		}
	}
}

func TestStorageRepositoryClosedDatabase(t *testing.T) {
	db := newTestDB(t)
	repo := NewStorageRepository(db, "local")
	db.Close()

	if _, _, err := repo.GetItem("k"); !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("GetItem() on closed db error = %v, want ErrUnavailable", err)
	}
	if err := repo.SetItem("k", "v"); !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("SetItem() on closed db error = %v, want ErrUnavailable", err)
	}
}
