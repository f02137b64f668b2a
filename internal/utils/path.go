package utils

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// GetUserDataDir returns the per-user application data directory.
func GetUserDataDir() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("unable to get APPDATA directory on Windows")
		}
		return appData, nil
	case "darwin":
		return filepath.Join(currentUser.HomeDir, "Library", "Application Support"), nil
	case "linux":
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return xdgData, nil
		}
		return filepath.Join(currentUser.HomeDir, ".local", "share"), nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// GetSiteForgeDataDir returns the root directory holding the database, the
// managed plugin directory, per-plugin data trees and logs. SITEFORGE_ROOT
// overrides the per-OS default.
func GetSiteForgeDataDir() (string, error) {
	var dir string
	if override := os.Getenv("SITEFORGE_ROOT"); override != "" {
		dir = override
	} else {
		switch runtime.GOOS {
		case "linux":
			dir = "/var/lib/siteforge"
		default:
			userDir, err := GetUserDataDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(userDir, "SiteForge")
		}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", dir, err)
	}
	return dir, nil
}
