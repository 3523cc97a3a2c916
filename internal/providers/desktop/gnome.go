package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	shellSchema      = "org.gnome.shell"
	backgroundSchema = "org.gnome.desktop.background"
	wmSchema         = "org.gnome.desktop.wm.preferences"
)

// GNOME talks to a GNOME desktop through the gsettings and wmctrl
// command-line tools. Every call spawns a short-lived helper process.
type GNOME struct {
	gsettingsBin string
	wmctrlBin    string
}

// NewGNOME creates a GNOME desktop accessor using the default tool names
// resolved from PATH.
func NewGNOME() *GNOME {
	return &GNOME{gsettingsBin: "gsettings", wmctrlBin: "wmctrl"}
}

// FavoriteAppIDs reads org.gnome.shell favorite-apps.
func (g *GNOME) FavoriteAppIDs(ctx context.Context) ([]string, error) {
	out, err := g.gsettings(ctx, "get", shellSchema, "favorite-apps")
	if err != nil {
		return nil, err
	}
	return parseStringArray(out), nil
}

// SetFavoriteAppIDs overwrites org.gnome.shell favorite-apps.
func (g *GNOME) SetFavoriteAppIDs(ctx context.Context, ids []string) error {
	_, err := g.gsettings(ctx, "set", shellSchema, "favorite-apps", formatStringArray(ids))
	return err
}

// Wallpaper reads the background picture-uri, stripped of its file://
// prefix.
func (g *GNOME) Wallpaper(ctx context.Context) (string, error) {
	out, err := g.gsettings(ctx, "get", backgroundSchema, "picture-uri")
	if err != nil {
		return "", err
	}
	uri := strings.Trim(strings.TrimSpace(out), "'")
	return strings.TrimPrefix(uri, "file://"), nil
}

// SetWallpaper overwrites the background picture-uri.
func (g *GNOME) SetWallpaper(ctx context.Context, path string) error {
	path = strings.TrimPrefix(path, "file://")
	_, err := g.gsettings(ctx, "set", backgroundSchema, "picture-uri", "file://"+path)
	return err
}

// ActiveWorkspace parses the active desktop index from wmctrl -d.
func (g *GNOME) ActiveWorkspace(ctx context.Context) (int, error) {
	out, err := g.run(ctx, g.wmctrlBin, "-d")
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "*" {
			return strconv.Atoi(fields[0])
		}
	}
	return 0, fmt.Errorf("no active workspace in wmctrl output")
}

// SetActiveWorkspace switches desktop focus with wmctrl -s.
func (g *GNOME) SetActiveWorkspace(ctx context.Context, index int) error {
	_, err := g.run(ctx, g.wmctrlBin, "-s", strconv.Itoa(index))
	return err
}

// WorkspaceCount counts the desktops listed by wmctrl -d.
func (g *GNOME) WorkspaceCount(ctx context.Context) (int, error) {
	out, err := g.run(ctx, g.wmctrlBin, "-d")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}

// AddWorkspace grows the static workspace count by one and returns the
// new slot's index. With dynamic workspaces GNOME grows the set itself;
// switching to the returned index is still valid.
func (g *GNOME) AddWorkspace(ctx context.Context) (int, error) {
	count, err := g.WorkspaceCount(ctx)
	if err != nil {
		return 0, err
	}
	_, err = g.gsettings(ctx, "set", wmSchema, "num-workspaces", strconv.Itoa(count+1))
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RunningAppIDs derives application ids from the WM_CLASS column of
// wmctrl -lx. Ids are best-effort; unresolvable classes are still
// returned and the favorites bridge skips what it cannot match.
func (g *GNOME) RunningAppIDs(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, g.wmctrlBin, "-lx")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		// WM_CLASS is instance.Class; the class maps to <class>.desktop.
		_, class, ok := strings.Cut(fields[2], ".")
		if !ok || class == "" {
			continue
		}
		id := strings.ToLower(class) + ".desktop"
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *GNOME) gsettings(ctx context.Context, args ...string) (string, error) {
	return g.run(ctx, g.gsettingsBin, args...)
}

func (g *GNOME) run(ctx context.Context, bin string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return string(out), nil
}

// parseStringArray parses a GVariant string array like ['a', 'b'].
func parseStringArray(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@as")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), "'\"")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// formatStringArray renders a GVariant string array literal.
func formatStringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + strings.ReplaceAll(item, "'", "") + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
