package dom

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reloads a Document whenever its source file is written.
// Rapid saves within the debounce window cause one reload.
type FileWatcher struct {
	path     string
	doc      *Document
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onError  func(error)

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// WatchFile parses path into a Document and starts reloading it on change.
// onError receives reload and watcher errors; it may be nil.
func WatchFile(ctx context.Context, path string, onError func(error)) (*Document, *FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open page: %w", err)
	}
	doc, err := Parse(f)
	f.Close()
	if err != nil {
		return nil, nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors often replace the file, so watch the directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	if onError == nil {
		onError = func(error) {}
	}
	fw := &FileWatcher{
		path:     abs,
		doc:      doc,
		watcher:  w,
		debounce: 50 * time.Millisecond,
		onError:  onError,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go fw.run(ctx)
	return doc, fw, nil
}

// Stop ends the watch and waits for the event loop to exit.
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.stopCh)
		<-fw.doneCh
		fw.watcher.Close()
	})
}

// Unsubscribe lets a FileWatcher be used as a Subscription.
func (fw *FileWatcher) Unsubscribe() {
	fw.Stop()
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			fw.reload()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.onError(fmt.Errorf("watcher error: %w", err))
		}
	}
}

func (fw *FileWatcher) reload() {
	f, err := os.Open(fw.path)
	if err != nil {
		fw.onError(fmt.Errorf("failed to reopen page: %w", err))
		return
	}
	defer f.Close()

	if err := fw.doc.Reload(f); err != nil {
		fw.onError(err)
	}
}
