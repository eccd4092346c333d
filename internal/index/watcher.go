package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Ryanu9/albus-imagine/internal/storage"
)

// EventCallback is called after a watcher-driven change.
// kind is one of "doc-updated", "doc-deleted", "image-created",
// "image-deleted".
type EventCallback func(kind string, path string)

// InvalidateFunc receives the target keys whose cached reference lists
// are stale after a document change.
type InvalidateFunc func(targetKeys []string)

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. Document changes reindex the
// file and invalidate the reference cache for every target the document
// referenced before or after the change. Image file events pass through
// to cb so the owning view can refresh its descriptors.
//
// New directories created at runtime are added to the watch list.
// Rename events trigger a debounced reconciliation pass that removes
// stale index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback, invalidate InvalidateFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, cb, invalidate)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					scheduleReconcile()
					continue
				}
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case strings.HasSuffix(rel, ".md"):
				handleDocEvent(db, store, logger, ev.Op, rel, cb, invalidate, scheduleReconcile)

			case storage.IsImagePath(rel):
				handleImageEvent(logger, ev.Op, rel, cb, scheduleReconcile)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func handleDocEvent(db *DB, store storage.Provider, logger *slog.Logger, op fsnotify.Op, rel string, cb EventCallback, invalidate InvalidateFunc, scheduleReconcile func()) {
	switch {
	case op&(fsnotify.Create|fsnotify.Write) != 0:
		before, _ := db.TargetsOf(rel)

		data, readErr := store.Read(rel)
		if readErr != nil {
			logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
			return
		}
		if idxErr := IndexDocument(db, rel, data); idxErr != nil {
			logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
			return
		}
		after, _ := db.TargetsOf(rel)

		logger.Debug("watcher: indexed", slog.String("path", rel))
		if invalidate != nil {
			if keys := unionKeys(before, after); len(keys) > 0 {
				invalidate(keys)
			}
		}
		if cb != nil {
			cb("doc-updated", rel)
		}

	case op&fsnotify.Remove != 0:
		stale, _ := db.TargetsOf(rel)
		if delErr := db.DeleteDocument(rel); delErr != nil {
			logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
			return
		}
		logger.Debug("watcher: deleted", slog.String("path", rel))
		if invalidate != nil && len(stale) > 0 {
			invalidate(stale)
		}
		if cb != nil {
			cb("doc-deleted", rel)
		}

	case op&fsnotify.Rename != 0:
		// fsnotify fires Rename on the OLD path only; the new path
		// arrives as a separate Create event. Drop the old entry now
		// and reconcile shortly after for stragglers.
		stale, _ := db.TargetsOf(rel)
		if delErr := db.DeleteDocument(rel); delErr == nil {
			if invalidate != nil && len(stale) > 0 {
				invalidate(stale)
			}
			if cb != nil {
				cb("doc-deleted", rel)
			}
		}
		scheduleReconcile()
	}
}

func handleImageEvent(logger *slog.Logger, op fsnotify.Op, rel string, cb EventCallback, scheduleReconcile func()) {
	switch {
	case op&fsnotify.Create != 0:
		logger.Debug("watcher: image created", slog.String("path", rel))
		if cb != nil {
			cb("image-created", rel)
		}
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		logger.Debug("watcher: image removed", slog.String("path", rel))
		if cb != nil {
			cb("image-deleted", rel)
		}
		scheduleReconcile()
	}
}

// reconcile does a lightweight sync using batch lookups: index entries
// without a file on disk are removed, on-disk documents with a changed
// checksum are reindexed.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback, invalidate InvalidateFunc) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.ListDocs("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			stale, _ := db.TargetsOf(p)
			if delErr := db.DeleteDocument(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if invalidate != nil && len(stale) > 0 {
					invalidate(stale)
				}
				if cb != nil {
					cb("doc-deleted", p)
				}
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := IndexDocument(db, p, data); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("path", p))
			if invalidate != nil {
				if keys, _ := db.TargetsOf(p); len(keys) > 0 {
					invalidate(keys)
				}
			}
			if cb != nil {
				cb("doc-updated", p)
			}
		}
	}
}

// addDirsRecursive adds dir and every non-hidden subdirectory to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// unionKeys merges two key slices without duplicates.
func unionKeys(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(a, b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
