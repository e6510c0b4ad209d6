package rdp

import (
	"errors"
	"os/exec"
)

// ErrClientNotInstalled is returned when no FreeRDP binary is on PATH.
var ErrClientNotInstalled = errors.New("freerdp client not installed")

// clientBinaries lists candidate FreeRDP binaries, most preferred first.
// xfreerdp3 ships with FreeRDP 3.x packages; older packages install xfreerdp.
var clientBinaries = []string{"xfreerdp3", "xfreerdp"}

// Hook for testing; production uses the real PATH lookup.
var lookPath = exec.LookPath

// FindClient returns the name of the installed FreeRDP binary, preferring the
// FreeRDP 3 name. It returns ErrClientNotInstalled when none is found.
func FindClient() (string, error) {
	for _, name := range clientBinaries {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", ErrClientNotInstalled
}

// ClientInstalled reports whether any FreeRDP binary is on PATH.
func ClientInstalled() bool {
	_, err := FindClient()
	return err == nil
}
