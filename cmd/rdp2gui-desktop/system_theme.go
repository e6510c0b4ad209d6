package main

import (
	"os/exec"
	"strings"
)

// gsettingsOutput is a variable so tests can stub theme detection.
var gsettingsOutput = func(key string) ([]byte, error) {
	return exec.Command("gsettings", "get", "org.gnome.desktop.interface", key).Output()
}

// detectSystemTheme returns "dark" or "light" from the desktop settings.
// Falls back to "dark" if detection fails.
func detectSystemTheme() string {
	// GNOME 42+ exposes the preference as color-scheme.
	output, err := gsettingsOutput("color-scheme")
	if err == nil {
		lower := strings.ToLower(string(output))
		if strings.Contains(lower, "dark") {
			return "dark"
		}
		if strings.Contains(lower, "light") {
			return "light"
		}
	}

	// Fallback: check GTK theme name for "dark" suffix
	output, err = gsettingsOutput("gtk-theme")
	if err == nil && strings.Contains(strings.ToLower(string(output)), "dark") {
		return "dark"
	}

	return "dark"
}
