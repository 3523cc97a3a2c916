// Package workspace maintains the slot assignment table: one entry per
// virtual workspace index, recording which workset is the slot's default
// and which is currently displayed on it.
package workspace

import (
	"sort"

	"github.com/blipk/worksetsd/internal/shared/types"
)

// Mapper owns the slot index to assignment table. A workset is displayed
// on at most one slot at a time; Set operations preserve that invariant.
// The mapper is not safe for concurrent use; the session manager
// serializes access.
type Mapper struct {
	slots map[int]*types.SlotAssignment
}

// NewMapper creates an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{slots: make(map[int]*types.SlotAssignment)}
}

// Reset replaces the whole table, taking ownership of the given map.
// A nil map resets to empty; nil entries, which a hand-edited document
// can contain, are replaced with empty assignments.
func (m *Mapper) Reset(slots map[int]*types.SlotAssignment) {
	if slots == nil {
		slots = make(map[int]*types.SlotAssignment)
	}
	for slot, assign := range slots {
		if assign == nil {
			slots[slot] = &types.SlotAssignment{}
		}
	}
	m.slots = slots
}

// Snapshot returns a deep copy of the table for persistence.
func (m *Mapper) Snapshot() map[int]*types.SlotAssignment {
	out := make(map[int]*types.SlotAssignment, len(m.slots))
	for slot, assign := range m.slots {
		a := *assign
		out[slot] = &a
	}
	return out
}

// EnsureSlot grows the table so every index up to and including slot has
// an entry.
func (m *Mapper) EnsureSlot(slot int) {
	for i := 0; i <= slot; i++ {
		if _, ok := m.slots[i]; !ok {
			m.slots[i] = &types.SlotAssignment{}
		}
	}
}

// SlotDisplaying returns the slot whose current workset equals name.
// At most one slot matches.
func (m *Mapper) SlotDisplaying(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for slot, assign := range m.slots {
		if assign.CurrentWorkset == name {
			return slot, true
		}
	}
	return 0, false
}

// DefaultFor returns the default workset name for a slot, or empty.
func (m *Mapper) DefaultFor(slot int) string {
	if assign, ok := m.slots[slot]; ok {
		return assign.DefaultWorkset
	}
	return ""
}

// CurrentFor returns the currently displayed workset name for a slot,
// or empty.
func (m *Mapper) CurrentFor(slot int) string {
	if assign, ok := m.slots[slot]; ok {
		return assign.CurrentWorkset
	}
	return ""
}

// AssignDefault marks name as the default workset for a slot.
func (m *Mapper) AssignDefault(slot int, name string) {
	m.EnsureSlot(slot)
	m.slots[slot].DefaultWorkset = name
}

// ClearDefault removes the default assignment on a slot.
func (m *Mapper) ClearDefault(slot int) {
	if assign, ok := m.slots[slot]; ok {
		assign.DefaultWorkset = ""
	}
}

// SetCurrent marks name as displayed on a slot. Any other slot currently
// displaying the same workset is cleared first.
func (m *Mapper) SetCurrent(slot int, name string) {
	m.ClearCurrentByName(name)
	m.EnsureSlot(slot)
	m.slots[slot].CurrentWorkset = name
}

// ClearCurrent removes the current assignment on a slot.
func (m *Mapper) ClearCurrent(slot int) {
	if assign, ok := m.slots[slot]; ok {
		assign.CurrentWorkset = ""
	}
}

// ClearCurrentByName clears every slot displaying the named workset.
func (m *Mapper) ClearCurrentByName(name string) {
	if name == "" {
		return
	}
	for _, assign := range m.slots {
		if assign.CurrentWorkset == name {
			assign.CurrentWorkset = ""
		}
	}
}

// OnRename rewrites every reference to oldName with newName, in both
// default and current fields.
func (m *Mapper) OnRename(oldName, newName string) {
	for _, assign := range m.slots {
		if assign.DefaultWorkset == oldName {
			assign.DefaultWorkset = newName
		}
		if assign.CurrentWorkset == oldName {
			assign.CurrentWorkset = newName
		}
	}
}

// OnDelete clears every reference to name.
func (m *Mapper) OnDelete(name string) {
	for _, assign := range m.slots {
		if assign.DefaultWorkset == name {
			assign.DefaultWorkset = ""
		}
		if assign.CurrentWorkset == name {
			assign.CurrentWorkset = ""
		}
	}
}

// Reconcile heals the table after a load: any current assignment not
// present in validNames is cleared, and a workset listed as current on
// more than one slot keeps only the lowest-indexed one, restoring the
// at-most-one-slot invariant external edits can break.
func (m *Mapper) Reconcile(validNames map[string]struct{}) {
	indexes := make([]int, 0, len(m.slots))
	for slot := range m.slots {
		indexes = append(indexes, slot)
	}
	sort.Ints(indexes)

	seen := make(map[string]struct{}, len(m.slots))
	for _, slot := range indexes {
		assign := m.slots[slot]
		if assign.CurrentWorkset == "" {
			continue
		}
		if _, ok := validNames[assign.CurrentWorkset]; !ok {
			assign.CurrentWorkset = ""
			continue
		}
		if _, dup := seen[assign.CurrentWorkset]; dup {
			assign.CurrentWorkset = ""
			continue
		}
		seen[assign.CurrentWorkset] = struct{}{}
	}
}

// Slots returns the number of entries in the table.
func (m *Mapper) Slots() int {
	return len(m.slots)
}
