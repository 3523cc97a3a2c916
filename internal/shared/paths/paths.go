// Package paths provides standardized filesystem paths for the persisted
// session documents and their backups.
//
// All documents live under a single configuration directory:
//
//	session.json                       full session document
//	session-backup-<timestamp>.json    snapshot before risky operations
//	envbackups/env-<Name>.json         explicit workset export
//	envbackups/env-<Name>-<timestamp>.json  pre-delete workset backup
package paths

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionFileName is the name of the active session document.
	SessionFileName = "session.json"

	// EnvBackupDirName is the subdirectory holding workset exports
	// and backups.
	EnvBackupDirName = "envbackups"
)

// DefaultConfigDir returns the default configuration directory,
// ~/.config/worksets on most systems.
func DefaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "/tmp"
	}
	return filepath.Join(base, "worksets")
}

// SessionFile returns the path of the active session document.
func SessionFile(configDir string) string {
	return filepath.Join(configDir, SessionFileName)
}

// SessionBackupFile returns the path of a timestamped session snapshot.
func SessionBackupFile(configDir, timestamp string) string {
	return filepath.Join(configDir, "session-backup-"+timestamp+".json")
}

// EnvFile returns the path of an explicit workset export.
func EnvFile(configDir, worksetName string) string {
	return filepath.Join(configDir, EnvBackupDirName, "env-"+SanitizeName(worksetName)+".json")
}

// EnvBackupFile returns the path of a timestamped workset backup.
func EnvBackupFile(configDir, worksetName, timestamp string) string {
	return filepath.Join(configDir, EnvBackupDirName, "env-"+SanitizeName(worksetName)+"-"+timestamp+".json")
}

// Timestamp renders the current wall-clock time as a filesystem-safe
// string: a locale-style date-time stripped of every character outside
// [A-Za-z0-9-. ], with spaces removed.
func Timestamp(t time.Time) string {
	rendered := t.Format("1/2/2006, 3:04:05 PM")
	var b strings.Builder
	b.Grow(len(rendered))
	for _, r := range rendered {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UniqueTimestamp is Timestamp plus a short random suffix so two backups
// written within the same second never collide.
func UniqueTimestamp(t time.Time) string {
	return Timestamp(t) + "-" + uuid.NewString()[:8]
}

// SanitizeName strips path separators from a workset name so it is safe
// to embed in a filename. The name itself is not otherwise restricted.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	return strings.ReplaceAll(name, "/", "_")
}
