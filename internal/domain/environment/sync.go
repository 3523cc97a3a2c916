// Package environment orchestrates switching the live desktop to match a
// workset: the favorites list, the wallpaper, and the active workspace.
package environment

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/blipk/worksetsd/internal/domain/bridge"
	"github.com/blipk/worksetsd/internal/domain/workspace"
	"github.com/blipk/worksetsd/internal/providers/desktop"
	"github.com/blipk/worksetsd/internal/providers/notify"
	"github.com/blipk/worksetsd/internal/shared/types"
)

// Synchronizer pushes workset state to the desktop. Per workset it moves
// between two states: hidden, or displayed on exactly one slot.
type Synchronizer struct {
	desktop  desktop.Desktop
	bridge   *bridge.Bridge
	mapper   *workspace.Mapper
	notifier notify.Notifier
	isolator desktop.WorkspaceIsolator
}

// NewSynchronizer creates a synchronizer over the given collaborators.
func NewSynchronizer(d desktop.Desktop, b *bridge.Bridge, m *workspace.Mapper, n notify.Notifier) *Synchronizer {
	return &Synchronizer{desktop: d, bridge: b, mapper: m, notifier: n}
}

// WithIsolator attaches the optional workspace isolation hook.
func (s *Synchronizer) WithIsolator(iso desktop.WorkspaceIsolator) *Synchronizer {
	s.isolator = iso
	return s
}

// Display makes a workset the one shown on a workspace slot and pushes
// its favorites and wallpaper to the desktop.
//
// If the workset is already displayed on some slot, focus switches to
// that slot. Otherwise the workset is loaded onto a fresh slot when
// createNewSlot is set, or onto the active slot when not. The favorites
// list and wallpaper are overwritten whole in every branch. The mapper
// records the workset as displayed only after the push succeeds, so a
// failed push leaves the model untouched.
func (s *Synchronizer) Display(ctx context.Context, workset *types.Workset, opts types.OptionSet, createNewSlot bool) error {
	if slot, ok := s.mapper.SlotDisplaying(workset.Name); ok {
		active, err := s.desktop.ActiveWorkspace(ctx)
		if err != nil {
			return fmt.Errorf("failed to read active workspace: %w", err)
		}
		if active != slot {
			if err := s.desktop.SetActiveWorkspace(ctx, slot); err != nil {
				return fmt.Errorf("failed to switch workspace: %w", err)
			}
		}
		if err := s.push(ctx, workset, opts, slot); err != nil {
			return err
		}
		if opts.ShowNotifications {
			s.notifier.Show("Switched to active environment "+workset.Name, false, 0.7)
		}
		return nil
	}

	var slot int
	if createNewSlot {
		newSlot, err := s.desktop.AddWorkspace(ctx)
		if err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}
		if err := s.desktop.SetActiveWorkspace(ctx, newSlot); err != nil {
			return fmt.Errorf("failed to switch workspace: %w", err)
		}
		slot = newSlot
	} else {
		active, err := s.desktop.ActiveWorkspace(ctx)
		if err != nil {
			return fmt.Errorf("failed to read active workspace: %w", err)
		}
		slot = active
	}

	if err := s.push(ctx, workset, opts, slot); err != nil {
		return err
	}
	s.mapper.SetCurrent(slot, workset.Name)
	if opts.ShowNotifications {
		s.notifier.Show("Loaded environment "+workset.Name, false, 1.4)
	}
	return nil
}

// Close hides a workset: every slot displaying it is cleared. Favorites
// and wallpaper of other slots are untouched.
func (s *Synchronizer) Close(workset *types.Workset) {
	s.mapper.ClearCurrentByName(workset.Name)
}

// SetBackgroundImage updates a workset's background image from a chooser
// result. The file must exist and be an image. If the workset is
// currently displayed the new wallpaper is pushed live.
func (s *Synchronizer) SetBackgroundImage(ctx context.Context, workset *types.Workset, chosenPath string) error {
	chosenPath = strings.TrimSpace(strings.TrimPrefix(chosenPath, "file://"))
	if chosenPath == "" {
		return fmt.Errorf("%w: background image path is required", types.ErrValidation)
	}

	kind, err := mimetype.DetectFile(chosenPath)
	if err != nil {
		return fmt.Errorf("failed to inspect background image: %w", err)
	}
	if !strings.HasPrefix(kind.String(), "image/") {
		return fmt.Errorf("%w: %s is not an image (%s)", types.ErrValidation, chosenPath, kind.String())
	}

	workset.BackgroundImagePath = chosenPath
	s.notifier.Show("Background Image Changed", true, 0)

	if _, displayed := s.mapper.SlotDisplaying(workset.Name); displayed {
		if err := s.desktop.SetWallpaper(ctx, chosenPath); err != nil {
			return fmt.Errorf("failed to set wallpaper: %w", err)
		}
	}
	return nil
}

// push overwrites the desktop favorites list and wallpaper with the
// workset's state and runs the isolation hook when enabled.
func (s *Synchronizer) push(ctx context.Context, workset *types.Workset, opts types.OptionSet, slot int) error {
	if err := s.desktop.SetFavoriteAppIDs(ctx, s.bridge.ExportFavorites(workset.FavoriteApps)); err != nil {
		return fmt.Errorf("failed to set favorites: %w", err)
	}
	if workset.BackgroundImagePath != "" {
		if err := s.desktop.SetWallpaper(ctx, workset.BackgroundImagePath); err != nil {
			return fmt.Errorf("failed to set wallpaper: %w", err)
		}
	}
	if opts.IsolateWorkspaces && s.isolator != nil {
		if err := s.isolator.Isolate(ctx, slot); err != nil {
			return fmt.Errorf("failed to isolate workspace: %w", err)
		}
	}
	return nil
}
