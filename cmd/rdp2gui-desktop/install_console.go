package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/rjeffmyers/rdp2gui/internal/installer"
)

// ErrInstallRunning is returned by Run while a previous install is still
// going.
var ErrInstallRunning = errors.New("an install is already running")

// InstallConsole runs a package install under a PTY and streams its
// output to the frontend. The PTY keeps sudo's password prompt working;
// the frontend forwards keystrokes back through Write. One install runs
// at a time.
type InstallConsole struct {
	ctx context.Context

	mu   sync.Mutex
	cmd  *exec.Cmd
	file *os.File
}

// NewInstallConsole creates a new install console.
func NewInstallConsole() *InstallConsole {
	return &InstallConsole{}
}

// SetContext sets the Wails runtime context.
func (c *InstallConsole) SetContext(ctx context.Context) {
	c.ctx = ctx
}

// Run starts the given install commands under a PTY and begins streaming
// output via install:data. install:exit fires when the commands finish.
func (c *InstallConsole) Run(title string, commands [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file != nil {
		return ErrInstallRunning
	}

	cmd := exec.Command("bash", "-c", installer.ShellLine(commands))
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start install: %w", err)
	}

	c.cmd = cmd
	c.file = ptmx

	if c.ctx != nil {
		runtime.EventsEmit(c.ctx, "install:started", title)
	}

	go c.readLoop(ptmx, cmd)

	return nil
}

// readLoop streams PTY output to the frontend until the install ends.
func (c *InstallConsole) readLoop(ptmx *os.File, cmd *exec.Cmd) {
	buf := make([]byte, 32*1024)

	for {
		n, err := ptmx.Read(buf)
		if n > 0 && c.ctx != nil {
			runtime.EventsEmit(c.ctx, "install:data", string(buf[:n]))
		}
		if err != nil {
			// PTY read fails once the child exits.
			break
		}
	}

	err := cmd.Wait()

	c.mu.Lock()
	// Only clear state this loop still owns; Close may have released it
	// and a new install may have started.
	if c.file == ptmx {
		c.cmd = nil
		c.file = nil
	}
	c.mu.Unlock()

	ptmx.Close()

	if c.ctx != nil {
		exit := map[string]interface{}{"success": err == nil}
		if err != nil {
			exit["error"] = err.Error()
		}
		runtime.EventsEmit(c.ctx, "install:exit", exit)
	}
}

// Write sends keystrokes to the running install, typically the sudo
// password.
func (c *InstallConsole) Write(data string) error {
	c.mu.Lock()
	f := c.file
	c.mu.Unlock()

	if f == nil {
		return fmt.Errorf("no install is running")
	}
	_, err := f.WriteString(data)
	return err
}

// Resize changes the PTY dimensions.
func (c *InstallConsole) Resize(cols, rows int) error {
	c.mu.Lock()
	f := c.file
	c.mu.Unlock()

	if f == nil {
		return nil
	}
	return pty.Setsize(f, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Close ends a running install, killing the underlying process. The
// readLoop reaps it and reports install:exit.
func (c *InstallConsole) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	if c.file != nil {
		// Closing the PTY unblocks the readLoop's pending Read.
		err := c.file.Close()
		c.file = nil
		c.cmd = nil
		return err
	}
	return nil
}
