// Package bridge converts between the desktop's favorite-application id
// list and workset application records.
package bridge

import (
	"github.com/blipk/worksetsd/internal/providers/appscan"
	"github.com/blipk/worksetsd/internal/shared/types"
)

// Bridge resolves application ids against the installed-application
// cache. The cache is rebuilt by a full scan on every import call so
// newly installed applications are always resolvable; the cost is one
// directory walk per import.
type Bridge struct {
	scanner appscan.Scanner
}

// New creates a bridge over the given scanner.
func New(scanner appscan.Scanner) *Bridge {
	return &Bridge{scanner: scanner}
}

// ExportFavorites converts app records to the desktop's favorite id
// list, order-preserving.
func (b *Bridge) ExportFavorites(apps []types.AppRef) []string {
	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}
	return ids
}

// ImportFavorites resolves each id into an app record using a fresh
// installed-application scan. Unresolved ids are skipped rather than
// failing the whole import.
func (b *Bridge) ImportFavorites(ids []string) ([]types.AppRef, error) {
	installed, err := b.scanner.Scan()
	if err != nil {
		return nil, err
	}

	refs := make([]types.AppRef, 0, len(ids))
	for _, id := range ids {
		app, ok := installed[id]
		if !ok {
			continue
		}
		refs = append(refs, types.AppRef{
			ID:          id,
			DisplayName: app.DisplayName,
			Icon:        app.Icon,
			ExecCommand: app.Exec,
		})
	}
	return refs, nil
}

// MergeByID concatenates two app record sequences, deduplicating by id.
// The first occurrence wins, so favorites listed first take precedence
// over running applications.
func MergeByID(first, second []types.AppRef) []types.AppRef {
	seen := make(map[string]struct{}, len(first)+len(second))
	out := make([]types.AppRef, 0, len(first)+len(second))
	for _, app := range append(append([]types.AppRef{}, first...), second...) {
		if _, dup := seen[app.ID]; dup {
			continue
		}
		seen[app.ID] = struct{}{}
		out = append(out, app)
	}
	return out
}
