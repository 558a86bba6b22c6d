// Package utils collects small helpers shared by the cmd/sshauth
// commands: XDG config and log file paths, a periodic KeepAlive
// ticker, and path helpers for locating and displaying identity files.
package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

const appName = "sshauth"

// ConfigDir returns the XDG config directory for this tool.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigFilePath returns the path to the optional CLI config file.
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LogFilePath returns the path the CLI logs to by default.
func LogFilePath() string {
	return filepath.Join(xdg.CacheHome, appName, appName+".log")
}

// KeepAlive calls fn every d until ctx is done.
func KeepAlive(ctx context.Context, d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// ShortenHomePath replaces the user's home directory prefix in path
// with "~", for compact logging of identity file paths.
func ShortenHomePath(path string) string {
	if path == "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	if path == home {
		return "~"
	}
	if rel, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return filepath.Join("~", rel)
	}
	return path
}

// DefaultIdentityFiles returns the conventional identity file paths
// under ~/.ssh, in the order an interactive ssh client tries them.
// Session.Identity is seeded from this list when the caller hasn't
// configured one explicitly (cmd/sshauth, SPEC_FULL.md §9).
func DefaultIdentityFiles() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}

	names := []string{"id_ed25519", "id_ecdsa", "id_rsa", "id_dsa"}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(home, ".ssh", n)
	}
	return paths
}
