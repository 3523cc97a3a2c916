package appscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestScanFindsDesktopEntries(t *testing.T) {
	dataDir := t.TempDir()
	appsDir := filepath.Join(dataDir, "applications")

	writeEntry(t, appsDir, "firefox.desktop", `[Desktop Entry]
Name=Firefox
Icon=firefox
Exec=firefox %u
`)
	writeEntry(t, filepath.Join(appsDir, "extra"), "tool.desktop", `[Desktop Entry]
Name=Tool
Exec=tool
`)
	writeEntry(t, appsDir, "notes.txt", "not a desktop entry")

	s := NewScannerWithDirs([]string{dataDir})
	apps, err := s.Scan()
	require.NoError(t, err)

	require.Len(t, apps, 2)
	assert.Equal(t, "Firefox", apps["firefox.desktop"].DisplayName)
	assert.Equal(t, "firefox %u", apps["firefox.desktop"].Exec)
	// Subdirectory components become dashes in the id.
	assert.Equal(t, "Tool", apps["extra-tool.desktop"].DisplayName)
}

func TestScanSkipsNoDisplay(t *testing.T) {
	dataDir := t.TempDir()
	writeEntry(t, filepath.Join(dataDir, "applications"), "hidden.desktop", `[Desktop Entry]
Name=Hidden
NoDisplay=true
`)

	s := NewScannerWithDirs([]string{dataDir})
	apps, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestScanEarlierDirWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeEntry(t, filepath.Join(first, "applications"), "app.desktop", `[Desktop Entry]
Name=FromFirst
`)
	writeEntry(t, filepath.Join(second, "applications"), "app.desktop", `[Desktop Entry]
Name=FromSecond
`)

	s := NewScannerWithDirs([]string{first, second})
	apps, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, "FromFirst", apps["app.desktop"].DisplayName)
}

func TestParseDesktopEntryGroups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multi.desktop")
	require.NoError(t, os.WriteFile(path, []byte(`# comment
[Desktop Entry]
Name=Main
Exec=main

[Desktop Action new-window]
Name=New Window
Exec=main --new-window
`), 0o644))

	entry, err := ParseDesktopEntryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Main", entry.Name)
	assert.Equal(t, "main", entry.Exec)
}
