package types

// Session is the root persisted state unit. Exactly one Session is active
// in memory at a time; it exclusively owns its worksets and workspace map.
type Session struct {
	Name         string                  `json:"name"`
	Options      OptionSet               `json:"options"`
	Worksets     []*Workset              `json:"worksets"`
	WorkspaceMap map[int]*SlotAssignment `json:"workspaceMap"`
}

// Workset is a named group of applications bound to a background image.
// Identity is by name, which is unique within a session.
type Workset struct {
	Name                string   `json:"name"`
	Favorite            bool     `json:"favorite"`
	BackgroundImagePath string   `json:"backgroundImagePath"`
	FavoriteApps        []AppRef `json:"favoriteApps"`
}

// AppRef is a snapshot of an installed application at the time it was
// pinned. It is not live-linked to the installed-application cache.
type AppRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon"`
	ExecCommand string `json:"execCommand"`
}

// SlotAssignment maps one workspace slot to its default and currently
// displayed workset. Empty string means unassigned.
type SlotAssignment struct {
	DefaultWorkset string `json:"defaultWorkset"`
	CurrentWorkset string `json:"currentWorkset"`
}

// OptionSet holds user-facing session options.
type OptionSet struct {
	IsolateWorkspaces    bool `json:"isolateWorkspaces"`
	ShowNotifications    bool `json:"showNotifications"`
	ShowWorkspaceOverlay bool `json:"showWorkspaceOverlay"`
	ShowPanelIndicator   bool `json:"showPanelIndicator"`
}

// DefaultOptions returns the option values a freshly bootstrapped
// session starts with.
func DefaultOptions() OptionSet {
	return OptionSet{
		IsolateWorkspaces:    false,
		ShowNotifications:    true,
		ShowWorkspaceOverlay: true,
		ShowPanelIndicator:   true,
	}
}

// Equal reports structural equality over all Workset fields. Two worksets
// that compare equal are duplicates regardless of their position in the
// session.
func (w *Workset) Equal(other *Workset) bool {
	if w == nil || other == nil {
		return w == other
	}
	if w.Name != other.Name ||
		w.Favorite != other.Favorite ||
		w.BackgroundImagePath != other.BackgroundImagePath ||
		len(w.FavoriteApps) != len(other.FavoriteApps) {
		return false
	}
	for i := range w.FavoriteApps {
		if w.FavoriteApps[i] != other.FavoriteApps[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the workset.
func (w *Workset) Clone() *Workset {
	if w == nil {
		return nil
	}
	cp := *w
	cp.FavoriteApps = make([]AppRef, len(w.FavoriteApps))
	copy(cp.FavoriteApps, w.FavoriteApps)
	return &cp
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := &Session{
		Name:         s.Name,
		Options:      s.Options,
		Worksets:     make([]*Workset, len(s.Worksets)),
		WorkspaceMap: make(map[int]*SlotAssignment, len(s.WorkspaceMap)),
	}
	for i, w := range s.Worksets {
		cp.Worksets[i] = w.Clone()
	}
	for slot, assign := range s.WorkspaceMap {
		a := *assign
		cp.WorkspaceMap[slot] = &a
	}
	return cp
}
