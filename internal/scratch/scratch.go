package scratch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"bnptool/internal/engine"
	"bnptool/internal/logging"
)

// CleanStaleResult contains the outcome of a sweep.
type CleanStaleResult struct {
	Removed []string
	Skipped []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Options tunes a sweep.
type Options struct {
	MaxAge time.Duration
	// DryRun reports what would be removed without touching the disk.
	DryRun bool
	Logger *slog.Logger
}

// CleanStale removes temporary stores under root that are older than
// opts.MaxAge and not held open by a running conversion. Lock files left
// behind by removed stores are deleted too.
func CleanStale(ctx context.Context, root string, opts Options) CleanStaleResult {
	result := CleanStaleResult{}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "scratch"))

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-opts.MaxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: ctx.Err()})
			return result
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), engine.TempPrefix) {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		lockPath := dirPath + engine.LockSuffix
		hadLock := exists(lockPath)
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !locked {
			result.Skipped = append(result.Skipped, dirPath)
			logger.Info("skipping temporary store in use",
				logging.String("path", dirPath),
				logging.String(logging.FieldEventType, "scratch_cleanup_skipped"),
			)
			continue
		}

		if opts.DryRun {
			result.Removed = append(result.Removed, dirPath)
			_ = lock.Unlock()
			if !hadLock {
				_ = os.Remove(lockPath)
			}
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logger.Warn("failed to remove stale temporary store",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		} else {
			result.Removed = append(result.Removed, dirPath)
			logger.Info("removed stale temporary store",
				logging.String("path", dirPath),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "scratch_cleanup"),
			)
		}
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}

	if !opts.DryRun {
		removeOrphanLocks(root, cutoff)
	}
	return result
}

// removeOrphanLocks deletes lock files whose store directory is gone.
func removeOrphanLocks(root string, cutoff time.Time) {
	matches, err := filepath.Glob(filepath.Join(root, engine.TempPrefix+"*"+engine.LockSuffix))
	if err != nil {
		return
	}
	for _, lockPath := range matches {
		dir := strings.TrimSuffix(lockPath, engine.LockSuffix)
		if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		info, err := os.Stat(lockPath)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		lock := flock.New(lockPath)
		if ok, err := lock.TryLock(); err != nil || !ok {
			continue
		}
		_ = os.Remove(lockPath)
		_ = lock.Unlock()
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// StoreInfo contains metadata about a temporary store directory.
type StoreInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	InUse   bool
}

// List returns the temporary stores under root, oldest first.
func List(root string) ([]StoreInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var stores []StoreInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), engine.TempPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		size, _ := dirSize(dirPath)

		stores = append(stores, StoreInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
			InUse:   inUse(dirPath),
		})
	}
	sort.Slice(stores, func(i, j int) bool {
		return stores[i].ModTime.Before(stores[j].ModTime)
	})

	return stores, nil
}

func inUse(dirPath string) bool {
	lockPath := dirPath + engine.LockSuffix
	if !exists(lockPath) {
		return false
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil || !ok {
		return true
	}
	_ = lock.Unlock()
	return false
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
