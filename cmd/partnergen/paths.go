// ABOUTME: Resolution and validation of the run history database location.
// ABOUTME: Follows the XDG Base Directory layout with an environment override.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// historyDisabled turns off run history when passed as --history.
const historyDisabled = "off"

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getDefaultDBPath returns the default history database path.
// Priority: PARTNERGEN_DB_PATH env var > XDG_DATA_HOME/partnergen/history.db > ./partnergen.db
func getDefaultDBPath(logger *zap.Logger) string {
	if envPath := strings.TrimSpace(os.Getenv("PARTNERGEN_DB_PATH")); envPath != "" {
		envPath = filepath.Clean(envPath)
		if envPath != "." {
			return envPath
		}
		logger.Warn("PARTNERGEN_DB_PATH is invalid (empty or '.'), using default path")
	}

	cwdPath := "./partnergen.db"

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil || homeDir == "" || homeDir == "/" {
			logger.Warn("could not determine home directory, using working directory",
				zap.String("home", homeDir), zap.Error(err), zap.String("path", cwdPath))
			return cwdPath
		}

		// Windows: %LOCALAPPDATA% or ~/AppData/Local
		// Unix/Linux/macOS: ~/.local/share
		if runtime.GOOS == "windows" {
			dataHome = getEnv("LOCALAPPDATA", filepath.Join(homeDir, "AppData", "Local"))
		} else {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(dataHome, "partnergen")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Warn("could not create data directory, using working directory",
			zap.String("dir", dataDir), zap.Error(err), zap.String("path", cwdPath))
		return cwdPath
	}

	dbPath := filepath.Join(dataDir, "history.db")
	logger.Debug("using history database", zap.String("path", dbPath))
	return dbPath
}

// validateAndCleanDBPath validates and cleans a database path.
// Handles Unix/Linux, macOS, and Windows paths (including UNC and drive letters).
func validateAndCleanDBPath(path string) (string, error) {
	cleanPath := filepath.Clean(strings.TrimSpace(path))

	// Reject empty and root-like paths
	if cleanPath == "" || cleanPath == "." || cleanPath == "/" {
		return "", fmt.Errorf("database path cannot be empty, '.', or '/'")
	}

	// Windows: reject bare drive letters (e.g., "C:", "D:")
	if runtime.GOOS == "windows" && len(cleanPath) == 2 && cleanPath[1] == ':' {
		return "", fmt.Errorf("database path cannot be a bare drive letter")
	}

	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("database path cannot contain '..'")
	}

	badPatterns := []string{
		".git",
		".svn",
		"node_modules",
		".env",
		"credentials",
		"secret",
	}
	lowerPath := strings.ToLower(cleanPath)
	for _, pattern := range badPatterns {
		if strings.Contains(lowerPath, pattern) {
			return "", fmt.Errorf("database path cannot contain '%s' directory", pattern)
		}
	}

	return cleanPath, nil
}
