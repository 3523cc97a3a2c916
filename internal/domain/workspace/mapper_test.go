package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blipk/worksetsd/internal/shared/types"
)

func TestSlotDisplaying(t *testing.T) {
	m := NewMapper()
	m.EnsureSlot(2)
	m.SetCurrent(1, "Work")

	slot, ok := m.SlotDisplaying("Work")
	assert.True(t, ok)
	assert.Equal(t, 1, slot)

	_, ok = m.SlotDisplaying("Play")
	assert.False(t, ok)

	_, ok = m.SlotDisplaying("")
	assert.False(t, ok)
}

func TestSetCurrentIsExclusive(t *testing.T) {
	m := NewMapper()
	m.SetCurrent(0, "Work")
	m.SetCurrent(2, "Work")

	// Moving a workset to another slot clears the old slot.
	assert.Equal(t, "", m.CurrentFor(0))
	assert.Equal(t, "Work", m.CurrentFor(2))

	matches := 0
	for slot := 0; slot < m.Slots(); slot++ {
		if m.CurrentFor(slot) == "Work" {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestOnRenamePropagates(t *testing.T) {
	m := NewMapper()
	m.EnsureSlot(3)
	m.AssignDefault(0, "Work")
	m.SetCurrent(2, "Work")
	m.AssignDefault(1, "Other")
	m.SetCurrent(3, "Other")

	m.OnRename("Work", "Job")

	assert.Equal(t, "Job", m.DefaultFor(0))
	assert.Equal(t, "Job", m.CurrentFor(2))
	// Unrelated slots untouched.
	assert.Equal(t, "Other", m.DefaultFor(1))
	assert.Equal(t, "Other", m.CurrentFor(3))
}

func TestOnDeleteClears(t *testing.T) {
	m := NewMapper()
	m.AssignDefault(0, "Work")
	m.SetCurrent(1, "Work")

	m.OnDelete("Work")

	assert.Equal(t, "", m.DefaultFor(0))
	assert.Equal(t, "", m.CurrentFor(1))
}

func TestReconcileClearsStaleCurrent(t *testing.T) {
	m := NewMapper()
	m.Reset(map[int]*types.SlotAssignment{
		0: {DefaultWorkset: "Gone", CurrentWorkset: "Gone"},
		1: {CurrentWorkset: "Kept"},
	})

	m.Reconcile(map[string]struct{}{"Kept": {}})

	assert.Equal(t, "", m.CurrentFor(0))
	assert.Equal(t, "Kept", m.CurrentFor(1))
	// Reconcile heals current references only.
	assert.Equal(t, "Gone", m.DefaultFor(0))
}

func TestResetReplacesNilAssignments(t *testing.T) {
	m := NewMapper()
	// A hand-edited document can decode a slot entry to null.
	m.Reset(map[int]*types.SlotAssignment{
		0: nil,
		1: {CurrentWorkset: "Work"},
	})

	assert.Equal(t, "", m.CurrentFor(0))
	assert.Equal(t, "Work", m.CurrentFor(1))

	// The healed entry survives the operations a load runs next.
	m.Reconcile(map[string]struct{}{"Work": {}})
	snap := m.Snapshot()
	assert.Equal(t, &types.SlotAssignment{}, snap[0])
}

func TestReconcileClearsDuplicateCurrents(t *testing.T) {
	m := NewMapper()
	m.Reset(map[int]*types.SlotAssignment{
		0: {CurrentWorkset: "Work"},
		1: {CurrentWorkset: "Work"},
		2: {CurrentWorkset: "Play"},
	})

	m.Reconcile(map[string]struct{}{"Work": {}, "Play": {}})

	// The lowest-indexed slot keeps the workset.
	assert.Equal(t, "Work", m.CurrentFor(0))
	assert.Equal(t, "", m.CurrentFor(1))
	assert.Equal(t, "Play", m.CurrentFor(2))

	slot, ok := m.SlotDisplaying("Work")
	assert.True(t, ok)
	assert.Equal(t, 0, slot)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := NewMapper()
	m.SetCurrent(0, "Work")

	snap := m.Snapshot()
	snap[0].CurrentWorkset = "Tampered"

	assert.Equal(t, "Work", m.CurrentFor(0))
}

func TestEnsureSlotGrows(t *testing.T) {
	m := NewMapper()
	m.EnsureSlot(4)
	assert.Equal(t, 5, m.Slots())
}
