// Package installer locates the system package manager and terminal
// emulator used to install the FreeRDP client and keyring support.
package installer

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrNoPackageManager is returned when no supported package manager
	// is on the PATH.
	ErrNoPackageManager = errors.New("no supported package manager found")

	// ErrNoTerminal is returned when no known terminal emulator is on
	// the PATH.
	ErrNoTerminal = errors.New("no terminal emulator found")
)

// lookPath is a variable so tests can stub binary detection.
var lookPath = exec.LookPath

// PackageManager describes a system package manager and the package names
// it uses for the client and keyring service.
type PackageManager struct {
	Name string

	updateArgs     []string // nil when the manager needs no separate refresh
	installArgs    []string
	clientPackage  string
	keyringPackage string
}

// supportedManagers lists package managers in detection order.
var supportedManagers = []PackageManager{
	{
		Name:           "apt",
		updateArgs:     []string{"apt", "update"},
		installArgs:    []string{"apt", "install", "-y"},
		clientPackage:  "freerdp2-x11",
		keyringPackage: "gnome-keyring",
	},
	{
		Name:           "dnf",
		installArgs:    []string{"dnf", "install", "-y"},
		clientPackage:  "freerdp",
		keyringPackage: "gnome-keyring",
	},
	{
		Name:           "pacman",
		installArgs:    []string{"pacman", "-S", "--noconfirm"},
		clientPackage:  "freerdp",
		keyringPackage: "gnome-keyring",
	},
	{
		Name:           "zypper",
		installArgs:    []string{"zypper", "install", "-y"},
		clientPackage:  "freerdp",
		keyringPackage: "gnome-keyring",
	},
}

// Detect returns the system's package manager, trying each supported one
// in order.
func Detect() (*PackageManager, error) {
	for i := range supportedManagers {
		if _, err := lookPath(supportedManagers[i].Name); err == nil {
			m := supportedManagers[i]
			return &m, nil
		}
	}
	return nil, ErrNoPackageManager
}

// ClientCommands returns the commands that install the FreeRDP client.
func (m *PackageManager) ClientCommands() [][]string {
	return m.commands(m.clientPackage)
}

// KeyringCommands returns the commands that install the keyring service
// backing secure password storage.
func (m *PackageManager) KeyringCommands() [][]string {
	return m.commands(m.keyringPackage)
}

func (m *PackageManager) commands(pkg string) [][]string {
	var out [][]string
	if len(m.updateArgs) > 0 {
		update := make([]string, 0, len(m.updateArgs)+1)
		update = append(update, "sudo")
		update = append(update, m.updateArgs...)
		out = append(out, update)
	}
	install := make([]string, 0, len(m.installArgs)+2)
	install = append(install, "sudo")
	install = append(install, m.installArgs...)
	install = append(install, pkg)
	return append(out, install)
}

// ShellLine renders install commands as one copy-pasteable shell line.
func ShellLine(commands [][]string) string {
	parts := make([]string, 0, len(commands))
	for _, cmd := range commands {
		parts = append(parts, strings.Join(cmd, " "))
	}
	return strings.Join(parts, " && ")
}

// InstallScript renders the bash script run inside a terminal window. The
// trailing read keeps the window open until the user dismisses it.
func InstallScript(title string, commands [][]string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "echo \"Installing %s...\"\n", title)
	b.WriteString("echo \"\"\n")
	for _, cmd := range commands {
		b.WriteString(strings.Join(cmd, " "))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, `if [ $? -eq 0 ]; then
    echo ""
    echo "%s installed successfully!"
    echo ""
    echo "Restart the application to pick it up."
else
    echo ""
    echo "Installation failed."
    echo "Check your internet connection and try again."
fi
echo ""
echo "Press Enter to close..."
read
`, title)
	return b.String()
}

// terminalRunners lists terminal emulators in preference order, each with
// the argument shape it needs to run a script.
var terminalRunners = []struct {
	name string
	args func(script string) []string
}{
	{"gnome-terminal", func(s string) []string { return []string{"gnome-terminal", "--", "bash", s} }},
	{"xfce4-terminal", func(s string) []string { return []string{"xfce4-terminal", "-e", "bash " + s} }},
	{"mate-terminal", func(s string) []string { return []string{"mate-terminal", "-e", "bash " + s} }},
	{"konsole", func(s string) []string { return []string{"konsole", "-e", "bash", s} }},
	{"xterm", func(s string) []string { return []string{"xterm", "-e", "bash", s} }},
}

// TerminalCommand returns the command line that runs the given script in
// the first terminal emulator found on the PATH.
func TerminalCommand(scriptPath string) ([]string, error) {
	for _, t := range terminalRunners {
		if _, err := lookPath(t.name); err == nil {
			return t.args(scriptPath), nil
		}
	}
	return nil, ErrNoTerminal
}

// PrepareTerminalInstall writes the install script for the given commands
// to a temporary file and returns the terminal command that runs it.
func PrepareTerminalInstall(title string, commands [][]string) ([]string, error) {
	f, err := os.CreateTemp("", "rdp2gui-install-*.sh")
	if err != nil {
		return nil, fmt.Errorf("failed to create install script: %w", err)
	}
	path := f.Name()

	if _, err := f.WriteString(InstallScript(title, commands)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write install script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write install script: %w", err)
	}
	// The terminal emulator runs the script via bash, not by executing
	// it, but mark it runnable for users who keep it around.
	if err := os.Chmod(path, 0755); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to mark install script executable: %w", err)
	}

	return TerminalCommand(path)
}
