package watch

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Index is the document cache kept in sync with the disk
type Index interface {
	Invalidate(path string) error
	Remove(path string)
}

// Updater feeds external file changes into an Index
type Updater struct {
	index  Index
	logger *slog.Logger

	mu      sync.Mutex
	handled int
}

func NewUpdater(index Index, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{index: index, logger: logger}
}

// HandleChanges applies a batch of change events in path order.
func (u *Updater) HandleChanges(events []ChangeEvent) {
	start := time.Now()

	sorted := append([]ChangeEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, ev := range sorted {
		switch {
		case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
			// A rename may have been a save through a temporary file, so the
			// path is re-read and only dropped when it is really gone.
			if err := u.index.Invalidate(ev.Path); err != nil {
				u.logger.Warn("dropping document after failed reload", "file", ev.Path, "err", err)
				u.index.Remove(ev.Path)
			}
		case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
			if err := u.index.Invalidate(ev.Path); err != nil {
				u.logger.Error("document reload failed", "file", ev.Path, "err", err)
			}
		}
	}

	u.mu.Lock()
	u.handled += len(sorted)
	u.mu.Unlock()

	u.logger.Info("batch complete",
		"files", len(sorted),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}

// Handled returns how many events were applied so far.
func (u *Updater) Handled() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.handled
}

// Follow runs w and hands every batch to u until ctx is cancelled. It
// returns once both goroutines stopped.
func Follow(ctx context.Context, w *Watcher, u *Updater) error {
	ch := make(chan []ChangeEvent, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for events := range ch {
			u.HandleChanges(events)
		}
	}()

	err := w.Run(ctx, ch)
	close(ch)
	<-done
	if ctx.Err() != nil {
		return nil
	}
	return err
}
