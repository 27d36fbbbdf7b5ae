// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs until ctx is cancelled, re-syncing files as they change.
// Filesystem events are debounced so an editor's save burst produces
// one sync per file.
func (e *Engine) Watch(ctx context.Context, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := e.addWatches(watcher); err != nil {
		return err
	}

	debounce := e.cfg.Sync.DebounceWindow
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	fmt.Fprintf(w, "watching %s\n", e.cfg.Vault.BaseDir)

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// New subdirectories (e.g. a fresh month under the archive
			// tree) need their own watch.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if !hiddenPath(event.Name) {
					watcher.Add(event.Name)
				}
				continue
			}

			if !strings.HasSuffix(event.Name, ".md") || hiddenPath(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "watch error: %v\n", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = make(map[string]struct{})

			if _, err := e.SyncFiles(ctx, w, paths); err != nil {
				return err
			}
		}
	}
}

// addWatches registers the vault directories recursively plus the
// threads file's directory.
func (e *Engine) addWatches(watcher *fsnotify.Watcher) error {
	dirs := []string{e.cfg.Vault.ArchiveDir, e.cfg.Vault.KnowledgeDir, e.cfg.Vault.ReviewDir}
	if dir := filepath.Dir(e.cfg.Vault.ThreadsFile); dir != "" {
		dirs = append(dirs, dir)
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if hiddenPath(path) && path != dir {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
		if err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return nil
}

func hiddenPath(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_")
}
