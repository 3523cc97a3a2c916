// Package registry provides CRUD and validation over the list of worksets
// within a session.
package registry

import (
	"fmt"
	"strings"

	"github.com/blipk/worksetsd/internal/shared/types"
	"github.com/blipk/worksetsd/internal/shared/utils"
)

// Manager owns the ordered workset list of the active session. Insertion
// order is display order, most-recent-first. The manager is not safe for
// concurrent use; the session manager serializes access.
type Manager struct {
	worksets []*types.Workset
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{}
}

// Reset replaces the workset list, sanitizing it first. It runs on every
// session load.
func (m *Manager) Reset(worksets []*types.Workset) {
	m.worksets = Sanitize(worksets)
}

// List returns the worksets in display order. The returned slice is a
// copy but shares the workset pointers; callers wanting isolation clone.
func (m *Manager) List() []*types.Workset {
	out := make([]*types.Workset, len(m.worksets))
	copy(out, m.worksets)
	return out
}

// Names returns every workset name in display order.
func (m *Manager) Names() []string {
	names := make([]string, len(m.worksets))
	for i, w := range m.worksets {
		names[i] = w.Name
	}
	return names
}

// NameSet returns the set of workset names.
func (m *Manager) NameSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.worksets))
	for _, w := range m.worksets {
		set[w.Name] = struct{}{}
	}
	return set
}

// Get finds a workset by name.
func (m *Manager) Get(name string) (*types.Workset, bool) {
	for _, w := range m.worksets {
		if w.Name == name {
			return w, true
		}
	}
	return nil, false
}

// Add validates and inserts a workset at the head of the list. It fails
// with ErrDuplicateName if the name is already taken.
func (m *Manager) Add(workset *types.Workset) error {
	workset.Name = strings.TrimSpace(workset.Name)
	if err := utils.ValidateWorksetName(workset.Name); err != nil {
		return err
	}
	if _, exists := m.Get(workset.Name); exists {
		return fmt.Errorf("%w: %q", types.ErrDuplicateName, workset.Name)
	}
	if workset.FavoriteApps == nil {
		workset.FavoriteApps = []types.AppRef{}
	}
	m.worksets = append([]*types.Workset{workset}, m.worksets...)
	return nil
}

// Rename changes a workset's name. The caller propagates the rename to
// the workspace map in the same operation.
func (m *Manager) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if err := utils.ValidateWorksetName(newName); err != nil {
		return err
	}
	workset, ok := m.Get(oldName)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrNotFound, oldName)
	}
	if newName == oldName {
		return nil
	}
	if _, exists := m.Get(newName); exists {
		return fmt.Errorf("%w: %q", types.ErrDuplicateName, newName)
	}
	workset.Name = newName
	return nil
}

// ToggleFavorite flips a workset's favorite flag and moves it to the head
// of the list, so it surfaces at the top of whichever sublist (favorite
// or history) it now belongs to.
func (m *Manager) ToggleFavorite(name string) (*types.Workset, error) {
	idx := m.indexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	workset := m.worksets[idx]
	workset.Favorite = !workset.Favorite

	m.worksets = append(m.worksets[:idx], m.worksets[idx+1:]...)
	m.worksets = append([]*types.Workset{workset}, m.worksets...)
	return workset, nil
}

// Remove deletes a workset from the list and returns it. The caller is
// responsible for backing it up and clearing workspace map references
// before calling.
func (m *Manager) Remove(name string) (*types.Workset, error) {
	idx := m.indexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	workset := m.worksets[idx]
	m.worksets = append(m.worksets[:idx], m.worksets[idx+1:]...)
	return workset, nil
}

// RemoveFavoriteApp removes one pinned application from a workset by id.
// It reports whether an entry was actually removed.
func (m *Manager) RemoveFavoriteApp(name, appID string) (*types.Workset, bool, error) {
	if err := utils.ValidateAppID(appID); err != nil {
		return nil, false, err
	}
	workset, ok := m.Get(name)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	kept := workset.FavoriteApps[:0]
	removed := false
	for _, app := range workset.FavoriteApps {
		if app.ID == appID {
			removed = true
			continue
		}
		kept = append(kept, app)
	}
	workset.FavoriteApps = kept
	return workset, removed, nil
}

// MoveToHead moves a workset to the head of the list, the
// most-recently-touched position.
func (m *Manager) MoveToHead(name string) {
	idx := m.indexOf(name)
	if idx <= 0 {
		return
	}
	workset := m.worksets[idx]
	m.worksets = append(m.worksets[:idx], m.worksets[idx+1:]...)
	m.worksets = append([]*types.Workset{workset}, m.worksets...)
}

func (m *Manager) indexOf(name string) int {
	for i, w := range m.worksets {
		if w.Name == name {
			return i
		}
	}
	return -1
}

// Sanitize repairs missing fields and removes exact-content duplicates,
// keeping the first occurrence. It is idempotent: running it twice yields
// the same result as running it once.
func Sanitize(worksets []*types.Workset) []*types.Workset {
	out := make([]*types.Workset, 0, len(worksets))
	for i, workset := range worksets {
		if workset == nil {
			continue
		}
		if workset.FavoriteApps == nil {
			workset.FavoriteApps = []types.AppRef{}
		}
		if workset.Name == "" {
			workset.Name = fmt.Sprintf("Workset %d", i)
		}

		duplicate := false
		for _, kept := range out {
			if kept.Equal(workset) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, workset)
		}
	}
	return out
}
