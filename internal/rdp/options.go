// Package rdp builds xfreerdp invocations from per-host connection options.
package rdp

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// Resolutions lists the selectable session sizes, used when fullscreen is off.
// The first entry is the default.
var Resolutions = []string{
	"1920x1080",
	"1680x1050",
	"1600x900",
	"1440x900",
	"1366x768",
	"1280x1024",
	"1280x720",
	"1024x768",
}

// Audio playback modes. Any other value leaves audio untouched on the command line.
const (
	AudioLocal    = "local"
	AudioRemote   = "remote"
	AudioDisabled = "disabled"
)

// AudioModes returns the recognized audio_mode values in display order.
func AudioModes() []string {
	return []string{AudioLocal, AudioRemote, AudioDisabled}
}

// AdvancedOptions holds the per-host session settings. JSON keys match the
// config document on disk, so existing configs keep working.
type AdvancedOptions struct {
	// Fullscreen uses the whole display; Resolution applies only when it is off.
	Fullscreen bool   `json:"fullscreen"`
	Resolution string `json:"resolution"`

	// Multimon spans the session across monitors. SelectedMonitors restricts
	// the span to specific xrandr indices; empty means all monitors.
	Multimon         bool  `json:"multimon"`
	SelectedMonitors []int `json:"selected_monitors"`

	// Performance toggles. Each true value disables the corresponding remote
	// desktop effect.
	DisableFonts     bool `json:"disable_fonts"`
	DisableWallpaper bool `json:"disable_wallpaper"`
	DisableThemes    bool `json:"disable_themes"`
	DisableAero      bool `json:"disable_aero"`
	DisableDrag      bool `json:"disable_drag"`

	Compression bool `json:"compression"`

	// AudioMode is one of AudioLocal, AudioRemote, AudioDisabled.
	AudioMode string `json:"audio_mode"`

	Clipboard      bool `json:"clipboard"`
	RedirectDrives bool `json:"redirect_drives"`

	// NLA selects network level authentication; off falls back to legacy RDP
	// security.
	NLA bool `json:"nla"`
}

// DefaultOptions returns the settings used for hosts with nothing stored.
// Stored partial documents are unmarshalled over this value, so absent keys
// keep their defaults and stored values (including false) win.
func DefaultOptions() AdvancedOptions {
	return AdvancedOptions{
		Fullscreen:       true,
		Resolution:       Resolutions[0],
		Multimon:         false,
		SelectedMonitors: nil,
		DisableFonts:     true,
		DisableWallpaper: true,
		DisableThemes:    true,
		DisableAero:      true,
		DisableDrag:      true,
		Compression:      true,
		AudioMode:        AudioLocal,
		Clipboard:        true,
		RedirectDrives:   false,
		NLA:              true,
	}
}

// MergeOptions applies a stored options document over the defaults. Keys
// absent from the document keep their default value; unknown keys are
// ignored. A document that fails to decode is discarded entirely.
func MergeOptions(stored []byte) AdvancedOptions {
	opts := DefaultOptions()
	if len(stored) == 0 {
		return opts
	}
	if err := json.Unmarshal(stored, &opts); err != nil {
		log.Printf("Warning: ignoring malformed advanced options: %v", err)
		return DefaultOptions()
	}
	return opts
}

// ParseMonitorList parses a comma-separated monitor selection like "0,1".
// Any malformed token (non-integer or negative) discards the whole input and
// returns nil, which means "all monitors". Empty input also returns nil.
func ParseMonitorList(text string) []int {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := strings.Split(text, ",")
	monitors := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil
		}
		monitors = append(monitors, n)
	}
	return monitors
}

// MonitorListString renders a monitor selection back to the comma-separated
// form shown in the options dialog.
func MonitorListString(monitors []int) string {
	if len(monitors) == 0 {
		return ""
	}
	parts := make([]string, len(monitors))
	for i, m := range monitors {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}
