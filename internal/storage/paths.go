// Package storage keeps perft results in a BadgerDB database under the
// platform data directory.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesscore"

// DatabaseEnv overrides the database directory when set.
const DatabaseEnv = "CHESSCORE_DB"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chesscore/
// - Linux: ~/.local/share/chesscore/
// - Windows: %APPDATA%/chesscore/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Check XDG_DATA_HOME first
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDatabaseDir returns the BadgerDB directory: $CHESSCORE_DB when set,
// otherwise "perft" under the data directory.
func GetDatabaseDir() (string, error) {
	dbDir := os.Getenv(DatabaseEnv)
	if dbDir == "" {
		dataDir, err := GetDataDir()
		if err != nil {
			return "", err
		}
		dbDir = filepath.Join(dataDir, "perft")
	}

	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	return dbDir, nil
}
