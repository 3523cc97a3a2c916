// Package appscan discovers installed applications by scanning desktop
// entry files under the XDG data directories.
package appscan

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// InstalledApp holds the launch metadata of one installed application.
type InstalledApp struct {
	DisplayName string
	Icon        string
	Exec        string
}

// Scanner produces the installed-application cache. Scan runs a full
// rescan on every call; whether callers cache the result is their
// decision.
type Scanner interface {
	Scan() (map[string]InstalledApp, error)
}

// XDGScanner walks <dir>/applications for every XDG data directory and
// parses each desktop entry it finds. Application ids are the entry file
// names (e.g. firefox.desktop), matching the id format of the desktop's
// favorites list.
type XDGScanner struct {
	dataDirs []string
}

// NewXDGScanner creates a scanner over $XDG_DATA_HOME and $XDG_DATA_DIRS,
// falling back to the freedesktop defaults when unset.
func NewXDGScanner() *XDGScanner {
	return &XDGScanner{dataDirs: xdgDataDirs()}
}

// NewScannerWithDirs creates a scanner over explicit data directories.
func NewScannerWithDirs(dirs []string) *XDGScanner {
	return &XDGScanner{dataDirs: dirs}
}

// Scan walks every applications directory and returns the id to metadata
// map. Entries marked NoDisplay are skipped; a later directory never
// overrides an earlier one, matching XDG precedence.
func (s *XDGScanner) Scan() (map[string]InstalledApp, error) {
	apps := make(map[string]InstalledApp)
	var mu sync.Mutex

	conf := fastwalk.Config{Follow: true}
	for _, dataDir := range s.dataDirs {
		root := filepath.Join(dataDir, "applications")
		if _, err := os.Stat(root); err != nil {
			continue
		}

		err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			if ok, _ := doublestar.Match("**/*.desktop", filepath.ToSlash(rel)); !ok {
				return nil
			}

			entry, parseErr := ParseDesktopEntryFile(path)
			if parseErr != nil || entry.NoDisplay {
				return nil
			}

			id := desktopEntryID(rel)
			mu.Lock()
			if _, seen := apps[id]; !seen {
				apps[id] = InstalledApp{
					DisplayName: entry.Name,
					Icon:        entry.Icon,
					Exec:        entry.Exec,
				}
			}
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return apps, nil
}

// desktopEntryID derives the application id from the entry's path
// relative to the applications directory. Subdirectory components become
// dashes, per the desktop entry spec.
func desktopEntryID(rel string) string {
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}

func xdgDataDirs() []string {
	var dirs []string

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		dirs = append(dirs, dataHome)
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, dir := range strings.Split(dataDirs, ":") {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
