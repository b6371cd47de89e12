// Package platform resolves per-OS config, data, and log locations.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DefaultAppName names config and data directories when no override is set.
const DefaultAppName = "skillroute"

// Environment variables consulted by ResolveOptions and ApplyOverrides.
const (
	EnvAppName  = "SKILLROUTE_APP_NAME"
	EnvDevMode  = "SKILLROUTE_DEV_MODE"
	EnvConfig   = "SKILLROUTE_CONFIG"
	EnvDBPath   = "SKILLROUTE_DB_PATH"
	EnvToken    = "SKILLROUTE_TOKEN"
	EnvBaseURL  = "SKILLROUTE_BASE_URL"
	logDirName  = "logs"
	configFile  = "config.toml"
	devSuffix   = "-dev"
	dbExtension = ".db"
)

// Paths holds the resolved on-disk locations of one app instance.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	DevMode bool
}

// Getenv looks up one environment variable.
type Getenv func(string) string

// ResolveOptions reads the app name and dev-mode flag from the environment.
// An unparsable dev-mode value counts as false.
func ResolveOptions(getenv Getenv, base Options) Options {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvAppName)); v != "" {
		base.AppName = v
	}
	if v := strings.TrimSpace(getenv(EnvDevMode)); v != "" {
		enabled, err := strconv.ParseBool(v)
		base.DevMode = err == nil && enabled
	}
	return base
}

// ApplyOverrides replaces config and database paths from the environment.
func ApplyOverrides(paths Paths, getenv Getenv) Paths {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvConfig)); v != "" {
		paths.ConfigPath = v
	}
	if v := strings.TrimSpace(getenv(EnvDBPath)); v != "" {
		paths.DBPath = v
	}
	return paths
}

// DefaultPaths resolves paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: DefaultAppName})
}

// DefaultPathsWithOptions resolves paths from the current user's base dirs.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir := configDir
	switch runtime.GOOS {
	case "linux":
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return Paths{}, fmt.Errorf("user home dir: %w", homeErr)
		}
		dataDir = filepath.Join(home, ".local", "share")
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			dataDir = v
		}
	}

	env := map[string]string{}
	for _, key := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "APPDATA", "LOCALAPPDATA"} {
		env[key] = os.Getenv(key)
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appDirName(opts))
}

// PathsFor computes paths for goos from explicit base dirs and env values.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase, dataBase := userConfigDir, userDataDir
	switch goos {
	case "linux":
		configBase = firstNonEmpty(env["XDG_CONFIG_HOME"], configBase)
		dataBase = firstNonEmpty(env["XDG_DATA_HOME"], dataBase)
	case "windows":
		configBase = firstNonEmpty(env["APPDATA"], configBase)
		dataBase = firstNonEmpty(env["LOCALAPPDATA"], dataBase)
	}

	appDataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, configFile),
		DataDir:    appDataDir,
		DBPath:     filepath.Join(appDataDir, appName+dbExtension),
		LogDir:     filepath.Join(appDataDir, logDirName),
	}, nil
}

func appDirName(opts Options) string {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = DefaultAppName
	}
	if opts.DevMode {
		name += devSuffix
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
