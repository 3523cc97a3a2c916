package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blipk/worksetsd/internal/shared/types"
)

func workset(name string, favorite bool) *types.Workset {
	return &types.Workset{
		Name:         name,
		Favorite:     favorite,
		FavoriteApps: []types.AppRef{},
	}
}

func TestAddRejectsDuplicateName(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(workset("Work", false)))

	err := m.Add(workset("Work", true))
	assert.True(t, errors.Is(err, types.ErrDuplicateName))
	assert.Len(t, m.List(), 1)
}

func TestAddRejectsEmptyName(t *testing.T) {
	m := NewManager()
	err := m.Add(workset("   ", false))
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestAddInsertsAtHead(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(workset("First", false)))
	require.NoError(t, m.Add(workset("Second", false)))

	assert.Equal(t, []string{"Second", "First"}, m.Names())
}

func TestRename(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(workset("Work", false)))
	require.NoError(t, m.Add(workset("Play", false)))

	require.NoError(t, m.Rename("Work", "Job"))
	_, ok := m.Get("Job")
	assert.True(t, ok)
	_, ok = m.Get("Work")
	assert.False(t, ok)

	err := m.Rename("Job", "Play")
	assert.True(t, errors.Is(err, types.ErrDuplicateName))

	err = m.Rename("Missing", "Anything")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestRenameToSameNameIsNoop(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(workset("Work", false)))
	assert.NoError(t, m.Rename("Work", "Work"))
}

func TestToggleFavoriteMovesToHead(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(workset("A", false)))
	require.NoError(t, m.Add(workset("B", false)))
	require.NoError(t, m.Add(workset("C", false)))
	// Display order is now C, B, A.

	toggled, err := m.ToggleFavorite("A")
	require.NoError(t, err)
	assert.True(t, toggled.Favorite)
	assert.Equal(t, []string{"A", "C", "B"}, m.Names())

	// Toggling again returns it to the non-favorite list, at the head.
	toggled, err = m.ToggleFavorite("A")
	require.NoError(t, err)
	assert.False(t, toggled.Favorite)
	assert.Equal(t, []string{"A", "C", "B"}, m.Names())
}

func TestRemove(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(workset("Work", false)))

	removed, err := m.Remove("Work")
	require.NoError(t, err)
	assert.Equal(t, "Work", removed.Name)
	assert.Empty(t, m.List())

	_, err = m.Remove("Work")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestRemoveFavoriteApp(t *testing.T) {
	m := NewManager()
	w := workset("Work", false)
	w.FavoriteApps = []types.AppRef{
		{ID: "a.desktop", DisplayName: "A"},
		{ID: "b.desktop", DisplayName: "B"},
	}
	require.NoError(t, m.Add(w))

	got, removed, err := m.RemoveFavoriteApp("Work", "a.desktop")
	require.NoError(t, err)
	assert.True(t, removed)
	require.Len(t, got.FavoriteApps, 1)
	assert.Equal(t, "b.desktop", got.FavoriteApps[0].ID)

	_, removed, err = m.RemoveFavoriteApp("Work", "missing.desktop")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSanitizeRepairsFields(t *testing.T) {
	worksets := []*types.Workset{
		{Name: "", FavoriteApps: nil},
		nil,
		{Name: "Named", FavoriteApps: []types.AppRef{{ID: "x"}}},
	}

	out := Sanitize(worksets)

	require.Len(t, out, 2)
	assert.Equal(t, "Workset 0", out[0].Name)
	assert.NotNil(t, out[0].FavoriteApps)
	assert.Equal(t, "Named", out[1].Name)
}

func TestSanitizeRemovesExactDuplicates(t *testing.T) {
	a := &types.Workset{Name: "Work", Favorite: true, BackgroundImagePath: "/bg.png",
		FavoriteApps: []types.AppRef{{ID: "a"}}}
	b := a.Clone()
	// Same name but different content is not a duplicate.
	c := &types.Workset{Name: "Work", Favorite: false, FavoriteApps: []types.AppRef{}}

	out := Sanitize([]*types.Workset{a, b, c})

	require.Len(t, out, 2)
	assert.Same(t, a, out[0])
	assert.Same(t, c, out[1])
}

func TestSanitizeIsIdempotent(t *testing.T) {
	worksets := []*types.Workset{
		{Name: ""},
		{Name: "Work", FavoriteApps: []types.AppRef{{ID: "a"}}},
		{Name: "Work", FavoriteApps: []types.AppRef{{ID: "a"}}},
	}

	once := Sanitize(worksets)
	twice := Sanitize(once)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Equal(twice[i]))
	}
}
