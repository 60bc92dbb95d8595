// Package prefs persists the small slice of client state that survives
// restarts: only the selected project id, under a versioned namespaced key.
// The project list and all feature records are always re-fetched, never
// restored from here.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StateKey namespaces the persisted state. Bumping the version orphans
// (and thereby discards) state written by incompatible builds.
const StateKey = "plancore.state.v1"

type state struct {
	SelectedProject string `json:"selected_project,omitempty"`
}

// File is a JSON state file holding the persisted selection.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile binds a state file at path. The file is created on first save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the state file location.
func (f *File) Path() string { return f.path }

// SelectedProject returns the persisted selection, or empty when the file is
// missing, unreadable, or carries a different state version.
func (f *File) SelectedProject() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		return ""
	}
	var keyed map[string]state
	if err := json.Unmarshal(data, &keyed); err != nil {
		return ""
	}
	return keyed[StateKey].SelectedProject
}

// SetSelectedProject persists the selection. An empty id clears it.
func (f *File) SetSelectedProject(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	keyed := map[string]state{StateKey: {SelectedProject: id}}
	data, err := json.MarshalIndent(keyed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
