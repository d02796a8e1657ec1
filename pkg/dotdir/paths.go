package dotdir

import "path/filepath"

const (
	collectionsDir = "collections"
	databaseFile   = "hues.sqlite"
)

// CollectionsDir returns the directory the json storage provider writes
// collections to, inside the resolved .hues/ directory.
func (m *Manager) CollectionsDir(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, collectionsDir), nil
}

// DatabasePath returns the sqlite database path inside the resolved .hues/
// directory.
func (m *Manager) DatabasePath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, databaseFile), nil
}
