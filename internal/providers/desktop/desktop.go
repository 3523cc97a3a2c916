// Package desktop abstracts the live desktop environment this engine
// synchronizes against: the favorites list, the wallpaper, and the
// virtual workspace set.
package desktop

import "context"

// Desktop is the desktop-session accessor consumed by the engine. A
// fake implementation backs the test suites; the shipped implementation
// talks to GNOME through gsettings and wmctrl.
type Desktop interface {
	// FavoriteAppIDs returns the desktop's favorite-application id list.
	FavoriteAppIDs(ctx context.Context) ([]string, error)
	// SetFavoriteAppIDs overwrites the whole favorites list.
	SetFavoriteAppIDs(ctx context.Context, ids []string) error

	// Wallpaper returns the current background image path.
	Wallpaper(ctx context.Context) (string, error)
	// SetWallpaper overwrites the background image path.
	SetWallpaper(ctx context.Context, path string) error

	// ActiveWorkspace returns the index of the active workspace slot.
	ActiveWorkspace(ctx context.Context) (int, error)
	// SetActiveWorkspace switches desktop focus to a slot.
	SetActiveWorkspace(ctx context.Context, index int) error
	// WorkspaceCount returns the number of virtual workspaces.
	WorkspaceCount(ctx context.Context) (int, error)
	// AddWorkspace requests a new workspace slot and returns its index.
	AddWorkspace(ctx context.Context) (int, error)

	// RunningAppIDs returns the application ids of windows open in the
	// current session.
	RunningAppIDs(ctx context.Context) ([]string, error)
}

// WorkspaceIsolator mirrors workspace assignment into third-party
// extension settings. The engine invokes it when the isolate-workspaces
// option is set; no implementation ships with the engine.
type WorkspaceIsolator interface {
	Isolate(ctx context.Context, slot int) error
}
