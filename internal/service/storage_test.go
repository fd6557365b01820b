package service

import (
	"path/filepath"
	"testing"

	"github.com/linnington/esheets-assets/internal/config"
	"github.com/linnington/esheets-assets/internal/repository"
	"github.com/linnington/esheets-assets/internal/storage"
)

func testConfig(driver, path string) *config.Config {
	cfg := config.FromEnv()
	cfg.StorageDriver = driver
	cfg.StoragePath = path
	return cfg
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.Config
		check   func(storage.Storage) bool
		wantErr bool
	}{
		{
			name:  "memory",
			cfg:   testConfig("memory", ""),
			check: func(s storage.Storage) bool { _, ok := s.(*storage.Memory); return ok },
		},
		{
			name:  "file",
			cfg:   testConfig("file", filepath.Join(dir, "store.json")),
			check: func(s storage.Storage) bool { _, ok := s.(*storage.File); return ok },
		},
		{
			name:    "unknown",
			cfg:     testConfig("redis", ""),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, closer, err := OpenStorage(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenStorage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer closer.Close()
			if !tt.check(s) {
				t.Errorf("OpenStorage() = %T", s)
			}
		})
	}
}

func TestSessionOverSQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	path := filepath.Join(t.TempDir(), "esheets.db")
	cfg := testConfig("sqlite", path)

	s, closer, err := OpenStorage(cfg, nil)
	if err != nil {
		t.Fatalf("OpenStorage() error = %v", err)
	}
	if _, ok := s.(*repository.StorageRepository); !ok {
		t.Fatalf("OpenStorage() = %T, want *repository.StorageRepository", s)
	}

	session := NewSession(s, WithConfig(cfg))
	session.Init(InitConfig{WorksheetID: "sql"})
	session.Commit(7, 8)
	closer.Close()

	// Reopening runs no migrations twice and sees the committed record.
	s, closer, err = OpenStorage(cfg, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer closer.Close()

	rec, ok := NewSession(s, WithConfig(cfg)).GetProgress("sql")
	if !ok || rec.LastScore != 7 || rec.SubmittedAt == nil {
		t.Errorf("GetProgress() after reopen = %+v, %v", rec, ok)
	}
}
