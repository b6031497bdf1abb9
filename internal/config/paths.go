package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDir = "chatpredict"

// GetEnv returns the value of the environment variable key or def when unset.
func GetEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// Platform holds what the default config location depends on.
type Platform struct {
	GOOS        string
	Home        string
	ProgramData string
	// ConfigDir, when set, replaces the per-OS directory.
	ConfigDir string
}

// CurrentPlatform describes the running process. CHATPREDICT_CONFIG_DIR
// overrides the directory.
func CurrentPlatform() Platform {
	home, _ := os.UserHomeDir()
	return Platform{
		GOOS:        runtime.GOOS,
		Home:        home,
		ProgramData: os.Getenv("ProgramData"),
		ConfigDir:   os.Getenv("CHATPREDICT_CONFIG_DIR"),
	}
}

// Dir is the directory holding config files on p.
func (p Platform) Dir() string {
	if p.ConfigDir != "" {
		return p.ConfigDir
	}
	switch p.GOOS {
	case "windows":
		base := strings.TrimRight(p.ProgramData, `\/`)
		if base == "" {
			base = "C:/ProgramData"
		}
		return filepath.Join(base, appDir)
	case "darwin":
		return filepath.Join(p.Home, "Library", "Application Support", appDir)
	default:
		return filepath.Join("/etc", appDir)
	}
}

// DefaultConfigPath returns where the config file name lives by default.
func DefaultConfigPath(name string) string {
	return filepath.Join(CurrentPlatform().Dir(), name)
}
