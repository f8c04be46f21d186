// Package config resolves grantlens settings from the config file, the
// environment and .env files.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath replaces a leading ~ with the home directory and expands $VAR
// references.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
