package appscan

import (
	"bufio"
	"os"
	"strings"
)

// DesktopEntry holds the fields this engine cares about from a
// freedesktop desktop entry file.
type DesktopEntry struct {
	Name      string
	Icon      string
	Exec      string
	NoDisplay bool
}

// ParseDesktopEntryFile reads and parses a desktop entry file. Only the
// [Desktop Entry] group is consulted; localized keys are ignored.
func ParseDesktopEntryFile(path string) (*DesktopEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entry := &DesktopEntry{}
	inMainGroup := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inMainGroup = line == "[Desktop Entry]"
			continue
		}
		if !inMainGroup {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			if entry.Name == "" {
				entry.Name = value
			}
		case "Icon":
			entry.Icon = value
		case "Exec":
			entry.Exec = value
		case "NoDisplay":
			entry.NoDisplay = value == "true"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entry, nil
}
