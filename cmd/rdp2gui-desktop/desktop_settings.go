package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DesktopConfig represents the [desktop] section of settings.toml
type DesktopConfig struct {
	Theme             string `toml:"theme"`              // "dark", "light", or "auto"
	ConfirmDisconnect *bool  `toml:"confirm_disconnect"` // nil = default true
	RememberLastHost  *bool  `toml:"remember_last_host"` // nil = default true
}

// DesktopSettingsManager manages app preferences in settings.toml. The
// connection document keeps its own JSON format; this file only holds
// presentation preferences.
type DesktopSettingsManager struct {
	configPath string
}

// NewDesktopSettingsManager creates a new desktop settings manager
func NewDesktopSettingsManager() *DesktopSettingsManager {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return &DesktopSettingsManager{
		configPath: filepath.Join(configDir, "rdp2gui", "settings.toml"),
	}
}

// fullConfig represents the entire settings.toml structure we care about
type fullConfig struct {
	Desktop DesktopConfig `toml:"desktop"`
	// Other sections are preserved as raw TOML
}

// loadDesktopSettings loads the desktop section from settings.toml
func (dsm *DesktopSettingsManager) loadDesktopSettings() (*DesktopConfig, error) {
	defaults := &DesktopConfig{Theme: "dark"}

	data, err := os.ReadFile(dsm.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, err
	}

	var config fullConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return defaults, nil // Return defaults on parse error
	}

	// Validate theme value
	switch config.Desktop.Theme {
	case "dark", "light", "auto":
		// Valid
	default:
		config.Desktop.Theme = "dark"
	}

	return &config.Desktop, nil
}

// saveDesktopSettings saves the desktop config, preserving other sections
func (dsm *DesktopSettingsManager) saveDesktopSettings(desktop *DesktopConfig) error {
	// Read existing config to preserve other sections
	existingData, _ := os.ReadFile(dsm.configPath)

	// Parse existing config into a map to preserve unknown sections
	var existingConfig map[string]interface{}
	if len(existingData) > 0 {
		if err := toml.Unmarshal(existingData, &existingConfig); err != nil {
			existingConfig = make(map[string]interface{})
		}
	} else {
		existingConfig = make(map[string]interface{})
	}

	// Update the desktop section
	desktopSection := map[string]interface{}{
		"theme": desktop.Theme,
	}
	if desktop.ConfirmDisconnect != nil {
		desktopSection["confirm_disconnect"] = *desktop.ConfirmDisconnect
	}
	if desktop.RememberLastHost != nil {
		desktopSection["remember_last_host"] = *desktop.RememberLastHost
	}
	existingConfig["desktop"] = desktopSection

	// Ensure directory exists
	dir := filepath.Dir(dsm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	// Encode to TOML
	var buf bytes.Buffer

	// Check if file existed and had content
	if len(existingData) == 0 {
		buf.WriteString("# rdp2gui preferences\n\n")
	}

	if err := toml.NewEncoder(&buf).Encode(existingConfig); err != nil {
		return err
	}

	return os.WriteFile(dsm.configPath, buf.Bytes(), 0600)
}

// GetTheme returns the current theme preference
func (dsm *DesktopSettingsManager) GetTheme() (string, error) {
	config, err := dsm.loadDesktopSettings()
	if err != nil {
		return "dark", err
	}
	return config.Theme, nil
}

// SetTheme sets the theme preference
func (dsm *DesktopSettingsManager) SetTheme(theme string) error {
	// Validate theme
	theme = strings.ToLower(strings.TrimSpace(theme))
	switch theme {
	case "dark", "light", "auto":
		// Valid
	default:
		theme = "dark"
	}

	config, err := dsm.loadDesktopSettings()
	if err != nil {
		config = &DesktopConfig{}
	}

	config.Theme = theme
	return dsm.saveDesktopSettings(config)
}

// GetConfirmDisconnect returns whether disconnecting a live session asks
// for confirmation first. Defaults to true if not set.
func (dsm *DesktopSettingsManager) GetConfirmDisconnect() (bool, error) {
	config, err := dsm.loadDesktopSettings()
	if err != nil {
		return true, err
	}

	if config.ConfirmDisconnect == nil {
		return true, nil
	}
	return *config.ConfirmDisconnect, nil
}

// SetConfirmDisconnect sets the disconnect confirmation preference.
func (dsm *DesktopSettingsManager) SetConfirmDisconnect(confirm bool) error {
	config, err := dsm.loadDesktopSettings()
	if err != nil {
		config = &DesktopConfig{Theme: "dark"}
	}

	config.ConfirmDisconnect = &confirm
	return dsm.saveDesktopSettings(config)
}

// GetRememberLastHost returns whether the connect form prefills the most
// recent host on startup. Defaults to true if not set.
func (dsm *DesktopSettingsManager) GetRememberLastHost() (bool, error) {
	config, err := dsm.loadDesktopSettings()
	if err != nil {
		return true, err
	}

	if config.RememberLastHost == nil {
		return true, nil
	}
	return *config.RememberLastHost, nil
}

// SetRememberLastHost sets the last-host prefill preference.
func (dsm *DesktopSettingsManager) SetRememberLastHost(remember bool) error {
	config, err := dsm.loadDesktopSettings()
	if err != nil {
		config = &DesktopConfig{Theme: "dark"}
	}

	config.RememberLastHost = &remember
	return dsm.saveDesktopSettings(config)
}
