package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/papercomputeco/hues/pkg/decode"
)

// Files returns the image files under root, sorted. Subdirectories are
// descended into only when recursive is set. Hidden directories are skipped.
func Files(root string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && decode.IsImageFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
