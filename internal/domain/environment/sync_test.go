package environment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blipk/worksetsd/internal/domain/bridge"
	"github.com/blipk/worksetsd/internal/domain/workspace"
	"github.com/blipk/worksetsd/internal/providers/appscan"
	"github.com/blipk/worksetsd/internal/shared/types"
)

type fakeDesktop struct {
	favorites   []string
	wallpaper   string
	active      int
	workspaces  int
	running     []string
	favoriteErr error
}

func (f *fakeDesktop) FavoriteAppIDs(ctx context.Context) ([]string, error) { return f.favorites, nil }
func (f *fakeDesktop) SetFavoriteAppIDs(ctx context.Context, ids []string) error {
	if f.favoriteErr != nil {
		return f.favoriteErr
	}
	f.favorites = ids
	return nil
}
func (f *fakeDesktop) Wallpaper(ctx context.Context) (string, error) { return f.wallpaper, nil }
func (f *fakeDesktop) SetWallpaper(ctx context.Context, path string) error {
	f.wallpaper = path
	return nil
}
func (f *fakeDesktop) ActiveWorkspace(ctx context.Context) (int, error) { return f.active, nil }
func (f *fakeDesktop) SetActiveWorkspace(ctx context.Context, index int) error {
	f.active = index
	return nil
}
func (f *fakeDesktop) WorkspaceCount(ctx context.Context) (int, error) { return f.workspaces, nil }
func (f *fakeDesktop) AddWorkspace(ctx context.Context) (int, error) {
	f.workspaces++
	return f.workspaces - 1, nil
}
func (f *fakeDesktop) RunningAppIDs(ctx context.Context) ([]string, error) { return f.running, nil }

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Show(message string, persistent bool, durationHint float64) {
	f.messages = append(f.messages, message)
}

type emptyScanner struct{}

func (emptyScanner) Scan() (map[string]appscan.InstalledApp, error) {
	return map[string]appscan.InstalledApp{}, nil
}

func newSynchronizer(d *fakeDesktop, n *fakeNotifier) (*Synchronizer, *workspace.Mapper) {
	mapper := workspace.NewMapper()
	return NewSynchronizer(d, bridge.New(emptyScanner{}), mapper, n), mapper
}

func TestDisplayOnNewSlot(t *testing.T) {
	d := &fakeDesktop{workspaces: 2, active: 0}
	n := &fakeNotifier{}
	sync, mapper := newSynchronizer(d, n)
	mapper.EnsureSlot(1)

	play := &types.Workset{Name: "Play", FavoriteApps: []types.AppRef{{ID: "game.desktop"}}}
	opts := types.OptionSet{ShowNotifications: true}

	require.NoError(t, sync.Display(context.Background(), play, opts, true))

	assert.Equal(t, 3, d.workspaces)
	assert.Equal(t, 2, d.active)
	assert.Equal(t, "Play", mapper.CurrentFor(2))
	assert.Equal(t, []string{"game.desktop"}, d.favorites)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Loaded environment Play")
}

func TestDisplaySwitchesToExistingSlot(t *testing.T) {
	d := &fakeDesktop{workspaces: 3, active: 0}
	n := &fakeNotifier{}
	sync, mapper := newSynchronizer(d, n)
	mapper.SetCurrent(2, "Work")

	work := &types.Workset{Name: "Work", FavoriteApps: []types.AppRef{}}
	opts := types.OptionSet{ShowNotifications: true}

	require.NoError(t, sync.Display(context.Background(), work, opts, false))

	assert.Equal(t, 3, d.workspaces, "no new slot created")
	assert.Equal(t, 2, d.active)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Switched to active environment Work")
}

func TestDisplayOnActiveSlot(t *testing.T) {
	d := &fakeDesktop{workspaces: 2, active: 1}
	n := &fakeNotifier{}
	sync, mapper := newSynchronizer(d, n)

	work := &types.Workset{Name: "Work", FavoriteApps: []types.AppRef{}, BackgroundImagePath: "/bg.png"}

	require.NoError(t, sync.Display(context.Background(), work, types.OptionSet{}, false))

	assert.Equal(t, "Work", mapper.CurrentFor(1))
	assert.Equal(t, "/bg.png", d.wallpaper)
	assert.Empty(t, n.messages, "notifications disabled")
}

func TestDisplayPushFailureClaimsNoSlot(t *testing.T) {
	d := &fakeDesktop{workspaces: 2, active: 1, favoriteErr: errors.New("gsettings unavailable")}
	n := &fakeNotifier{}
	sync, mapper := newSynchronizer(d, n)

	work := &types.Workset{Name: "Work", FavoriteApps: []types.AppRef{}}
	err := sync.Display(context.Background(), work, types.OptionSet{ShowNotifications: true}, false)
	require.Error(t, err)

	// A failed push must leave the model untouched: no slot records the
	// workset and the user is not told it loaded.
	_, displayed := mapper.SlotDisplaying("Work")
	assert.False(t, displayed)
	assert.Equal(t, "", mapper.CurrentFor(1))
	assert.Empty(t, n.messages)
}

func TestCloseClearsEverySlot(t *testing.T) {
	d := &fakeDesktop{}
	sync, mapper := newSynchronizer(d, &fakeNotifier{})
	mapper.SetCurrent(1, "Work")
	d.wallpaper = "/other.png"

	sync.Close(&types.Workset{Name: "Work"})

	_, displayed := mapper.SlotDisplaying("Work")
	assert.False(t, displayed)
	assert.Equal(t, "/other.png", d.wallpaper, "wallpaper untouched")
}

func TestSetBackgroundImageValidatesAndPushesLive(t *testing.T) {
	d := &fakeDesktop{}
	n := &fakeNotifier{}
	sync, mapper := newSynchronizer(d, n)

	// Minimal valid PNG header makes mimetype detect image/png.
	img := filepath.Join(t.TempDir(), "bg.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n0000000000"), 0o644))

	work := &types.Workset{Name: "Work"}
	mapper.SetCurrent(0, "Work")

	require.NoError(t, sync.SetBackgroundImage(context.Background(), work, img))
	assert.Equal(t, img, work.BackgroundImagePath)
	assert.Equal(t, img, d.wallpaper)

	notImage := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("plain text"), 0o644))
	err := sync.SetBackgroundImage(context.Background(), work, notImage)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSetBackgroundImageHiddenWorksetNotPushed(t *testing.T) {
	d := &fakeDesktop{wallpaper: "/old.png"}
	sync, _ := newSynchronizer(d, &fakeNotifier{})

	img := filepath.Join(t.TempDir(), "bg.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n0000000000"), 0o644))

	work := &types.Workset{Name: "Hidden"}
	require.NoError(t, sync.SetBackgroundImage(context.Background(), work, img))

	assert.Equal(t, img, work.BackgroundImagePath)
	assert.Equal(t, "/old.png", d.wallpaper)
}
