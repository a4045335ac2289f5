// Package appconfig loads and persists application preferences, grounded
// on ThirdCoastInteractive-Rewind's viper-based configuration.Config.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Preferences is the persisted app-preferences document: last-opened
// project, window geometry, target FPS, show-FPS/BPM, thumbnail mode,
// enabled egress streams.
type Preferences struct {
	LastProjectPath string `mapstructure:"LAST_PROJECT_PATH"`
	WindowX         int    `mapstructure:"WINDOW_X"`
	WindowY         int    `mapstructure:"WINDOW_Y"`
	WindowWidth     int    `mapstructure:"WINDOW_WIDTH"`
	WindowHeight    int    `mapstructure:"WINDOW_HEIGHT"`
	TargetFPS       float64 `mapstructure:"TARGET_FPS"`
	ShowFPS         bool   `mapstructure:"SHOW_FPS"`
	ShowBPM         bool   `mapstructure:"SHOW_BPM"`
	ThumbnailMode   string `mapstructure:"THUMBNAIL_MODE"`
	NDIEnabled      bool   `mapstructure:"NDI_ENABLED"`
	OMTEnabled      bool   `mapstructure:"OMT_ENABLED"`
}

func defaults() Preferences {
	return Preferences{
		WindowWidth:   1280,
		WindowHeight:  720,
		TargetFPS:     60,
		ThumbnailMode: "lazy",
	}
}

// Dir returns the OS-appropriate config directory for this app,
// creating it if necessary.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, "immersive")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", dir, err)
	}
	return dir, nil
}

// Load reads preferences.toml from the config dir, applying defaults for
// any field left unset. A missing file is not an error; it yields
// defaults so first-run never fails.
func Load() (Preferences, error) {
	dir, err := Dir()
	if err != nil {
		return Preferences{}, err
	}

	v := viper.New()
	v.SetConfigName("preferences")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	d := defaults()
	v.SetDefault("WINDOW_WIDTH", d.WindowWidth)
	v.SetDefault("WINDOW_HEIGHT", d.WindowHeight)
	v.SetDefault("TARGET_FPS", d.TargetFPS)
	v.SetDefault("THUMBNAIL_MODE", d.ThumbnailMode)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Preferences{}, fmt.Errorf("read preferences: %w", err)
		}
	}

	var prefs Preferences
	if err := v.Unmarshal(&prefs); err != nil {
		return Preferences{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return prefs, nil
}

// Save writes preferences.toml under the config dir, overwriting any
// existing file.
func Save(prefs Preferences) error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("LAST_PROJECT_PATH", prefs.LastProjectPath)
	v.Set("WINDOW_X", prefs.WindowX)
	v.Set("WINDOW_Y", prefs.WindowY)
	v.Set("WINDOW_WIDTH", prefs.WindowWidth)
	v.Set("WINDOW_HEIGHT", prefs.WindowHeight)
	v.Set("TARGET_FPS", prefs.TargetFPS)
	v.Set("SHOW_FPS", prefs.ShowFPS)
	v.Set("SHOW_BPM", prefs.ShowBPM)
	v.Set("THUMBNAIL_MODE", prefs.ThumbnailMode)
	v.Set("NDI_ENABLED", prefs.NDIEnabled)
	v.Set("OMT_ENABLED", prefs.OMTEnabled)

	path := filepath.Join(dir, "preferences.toml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
