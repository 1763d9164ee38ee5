package workspace

import (
	"sort"
	"strings"
	"sync"

	"microgen-architect/internal/domain"
	"microgen-architect/internal/state"
)

// Workspace tracks which generated file is currently displayed. It derives
// everything else from the state store and keeps one invariant: the selected
// path is always a key of the current file map, or empty when the map is.
type Workspace struct {
	mu       sync.Mutex
	files    domain.FileMap
	selected string
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{files: domain.FileMap{}}
}

// Attach subscribes the workspace to file-map changes on the store and
// returns the unsubscribe function.
func (w *Workspace) Attach(store *state.Store) func() {
	w.Reconcile(store.Snapshot().GeneratedFiles)
	return store.Subscribe(func(snap state.Snapshot) {
		w.Reconcile(snap.GeneratedFiles)
	})
}

// Reconcile restores the selection invariant against a new file map. A still
// valid selection is left untouched so the user's explicit choice is sticky.
func (w *Workspace) Reconcile(files domain.FileMap) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files = files.Clone()
	if w.files == nil {
		w.files = domain.FileMap{}
	}

	if len(w.files) == 0 {
		w.selected = ""
		return
	}
	if _, ok := w.files[w.selected]; ok {
		return
	}
	w.selected = sortedPaths(w.files)[0]
}

// Select makes path the displayed file. Paths not present in the current map
// are ignored rather than rejected.
func (w *Workspace) Select(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[path]; ok {
		w.selected = path
	}
}

// Selected returns the currently displayed path, or empty when no files are
// available.
func (w *Workspace) Selected() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// Paths returns all file paths in lexicographic order.
func (w *Workspace) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return sortedPaths(w.files)
}

// Content returns the content of path, or empty when absent.
func (w *Workspace) Content(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path]
}

// LeafName returns the last slash-delimited segment for compact display.
// The full path remains the lookup key.
func LeafName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// sortedPaths lists map keys in lexicographic order.
func sortedPaths(files domain.FileMap) []string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
