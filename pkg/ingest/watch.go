package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/hues/pkg/decode"
)

// Watch calls fn for every image file created or written under dir until
// ctx is done. With recursive set, existing and newly created subdirectories
// are watched too.
func Watch(ctx context.Context, dir string, recursive bool, fn func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating folder watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirs(watcher, dir, recursive); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if recursive && !isHidden(info.Name()) {
					if err := addDirs(watcher, event.Name, true); err != nil {
						return err
					}
				}
				continue
			}
			if info.Mode().IsRegular() && decode.IsImageFile(event.Name) {
				fn(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("folder watcher error: %w", err)
		}
	}
}

func addDirs(watcher *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		if err := watcher.Add(root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
