package dom

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatchFileReloads(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	path := filepath.Join(t.TempDir(), "sheet.html")
	if err := os.WriteFile(path, []byte(`<div id="score">Score 1/4</div>`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc, fw, err := WatchFile(ctx, path, func(err error) { t.Logf("watch error: %v", err) })
	if err != nil {
		t.Fatalf("WatchFile() error = %v", err)
	}
	defer fw.Stop()

	els, _ := doc.Query("#score")
	changed := make(chan struct{}, 1)
	doc.Observe(els[0], func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	if err := os.WriteFile(path, []byte(`<div id="score">Score 3/4</div>`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification after write")
	}
	if got := els[0].Text(); got != "Score 3/4" {
		t.Errorf("Text() = %q, want %q", got, "Score 3/4")
	}
}

func TestWatchFileMissing(t *testing.T) {
	_, _, err := WatchFile(context.Background(), filepath.Join(t.TempDir(), "nope.html"), nil)
	if err == nil {
		t.Error("WatchFile() on missing file error = nil")
	}
}

func TestFileWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "sheet.html")
	os.WriteFile(path, []byte(`<p>1/2</p>`), 0o644)

	_, fw, err := WatchFile(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("WatchFile() error = %v", err)
	}
	fw.Stop()
	fw.Unsubscribe()
}
