package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/rjeffmyers/rdp2gui/internal/connection"
	"github.com/rjeffmyers/rdp2gui/internal/credentials"
	"github.com/rjeffmyers/rdp2gui/internal/display"
	"github.com/rjeffmyers/rdp2gui/internal/installer"
	"github.com/rjeffmyers/rdp2gui/internal/launcher"
	"github.com/rjeffmyers/rdp2gui/internal/rdp"
	"github.com/rjeffmyers/rdp2gui/internal/secretservice"
)

// Version is set at build time via ldflags.
var Version = "0.1.0-dev"

// findClient is a variable so tests can stub client discovery.
var findClient = rdp.FindClient

// App struct holds the application state.
type App struct {
	ctx context.Context

	registry *connection.Registry
	store    *credentials.Store
	sessions *launcher.Manager
	settings *DesktopSettingsManager
	console  *InstallConsole
}

// NewApp creates a new App application struct.
func NewApp() (*App, error) {
	registry, err := connection.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to open connection registry: %w", err)
	}

	backend := secretservice.NewClient("rdp2gui", "credentials")
	store, err := credentials.NewStore(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &App{
		registry: registry,
		store:    store,
		sessions: launcher.NewManager(nil),
		settings: NewDesktopSettingsManager(),
		console:  NewInstallConsole(),
	}, nil
}

// startup is called when the app starts.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.console.SetContext(ctx)
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	a.console.Close()
	a.sessions.Shutdown()
}

// GetVersion returns the application version.
func (a *App) GetVersion() string {
	return Version
}

// RecentConnection is a recent host joined with its stored profile.
type RecentConnection struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Domain   string `json:"domain"`
	LastUsed string `json:"lastUsed"`
}

// SessionInfo describes a launched session for the frontend.
type SessionInfo struct {
	ID            string `json:"id"`
	Host          string `json:"host"`
	Username      string `json:"username"`
	PID           int    `json:"pid"`
	StartedAt     string `json:"startedAt"`
	PasswordSaved bool   `json:"passwordSaved"`
}

// SessionExit is the payload of the session:exited event.
type SessionExit struct {
	SessionID string `json:"sessionId"`
	Host      string `json:"host"`
	Error     string `json:"error,omitempty"`
	Output    string `json:"output,omitempty"`
}

// ConnectRequest carries everything the connect form collects.
type ConnectRequest struct {
	Host             string `json:"host"`
	Username         string `json:"username"`
	Domain           string `json:"domain"`
	Password         string `json:"password"`
	RememberPassword bool   `json:"rememberPassword"`
}

// BackendInfo describes the credential backend for the Tools menu.
type BackendInfo struct {
	Available bool   `json:"available"`
	Enabled   bool   `json:"enabled"`
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
}

// ClientInfo reports whether the RDP client is installed.
type ClientInfo struct {
	Installed bool   `json:"installed"`
	Binary    string `json:"binary"`
}

// ==================== Connection Methods ====================

// ListRecentConnections returns the recently used hosts joined with their
// stored profiles, most recent first.
func (a *App) ListRecentConnections() ([]RecentConnection, error) {
	recent, err := a.registry.Recent()
	if err != nil {
		return nil, err
	}

	out := make([]RecentConnection, 0, len(recent))
	for _, host := range recent {
		rc := RecentConnection{Host: host}
		profile, err := a.registry.Lookup(host)
		if err != nil {
			log.Printf("Warning: failed to load profile for %s: %v", host, err)
		} else if profile != nil {
			rc.Username = profile.Username
			rc.Domain = profile.Domain
			rc.LastUsed = profile.LastUsed
		}
		out = append(out, rc)
	}
	return out, nil
}

// LookupConnection returns the stored profile for a host, or nil when the
// host has never been used. Used to prefill the connect form.
func (a *App) LookupConnection(host string) (*RecentConnection, error) {
	profile, err := a.registry.Lookup(strings.TrimSpace(host))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	return &RecentConnection{
		Host:     strings.TrimSpace(host),
		Username: profile.Username,
		Domain:   profile.Domain,
		LastUsed: profile.LastUsed,
	}, nil
}

// StoredPassword returns the saved password for a host and username, or
// an empty string. Used to prefill the password field.
func (a *App) StoredPassword(host, username string) string {
	password, _ := a.store.PasswordFor(strings.TrimSpace(host), strings.TrimSpace(username))
	return password
}

// Connect validates the request, records the profile, and launches the
// RDP client. The session:exited event fires when the client ends.
func (a *App) Connect(req ConnectRequest) (*SessionInfo, error) {
	host := strings.TrimSpace(req.Host)
	username := strings.TrimSpace(req.Username)
	domain := strings.TrimSpace(req.Domain)

	if host == "" || username == "" || req.Password == "" {
		return nil, fmt.Errorf("hostname, username and password are required")
	}

	passwordSaved := false
	if req.RememberPassword {
		if err := a.store.SavePassword(host, username, req.Password); err != nil {
			log.Printf("Warning: password not saved: %v", err)
		} else {
			passwordSaved = true
		}
	}

	if err := a.registry.RecordUse(host, username, domain); err != nil {
		log.Printf("Warning: failed to record connection to %s: %v", host, err)
	}

	opts, err := a.registry.AdvancedOptions(host)
	if err != nil {
		log.Printf("Warning: using default options for %s: %v", host, err)
		opts = rdp.DefaultOptions()
	}

	binary, err := findClient()
	if err != nil {
		return nil, err
	}

	args := rdp.BuildArgs(rdp.ConnectionParams{
		Host:     host,
		Username: username,
		Domain:   domain,
		Password: req.Password,
	}, opts)

	session, err := a.sessions.Launch(launcher.Spec{
		Client:   binary,
		Args:     args,
		Host:     host,
		Username: username,
	}, a.reportExit)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		ID:            session.ID,
		Host:          session.Host,
		Username:      session.Username,
		PID:           session.PID,
		StartedAt:     session.StartedAt.Format(time.RFC3339),
		PasswordSaved: passwordSaved,
	}, nil
}

// reportExit forwards a session exit to the frontend.
func (a *App) reportExit(result launcher.ExitResult) {
	exit := SessionExit{
		SessionID: result.SessionID,
		Host:      result.Host,
	}
	if result.Err != nil {
		exit.Error = result.Err.Error()
		exit.Output = result.Stderr
	}
	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, "session:exited", exit)
	}
}

// Disconnect ends a running session, killing the client if it does not
// exit within the grace period.
func (a *App) Disconnect(sessionID string) error {
	return a.sessions.Terminate(sessionID)
}

// ActiveSessions returns the currently running sessions, newest first.
func (a *App) ActiveSessions() []SessionInfo {
	sessions := a.sessions.Sessions()
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{
			ID:        s.ID,
			Host:      s.Host,
			Username:  s.Username,
			PID:       s.PID,
			StartedAt: s.StartedAt.Format(time.RFC3339),
		})
	}
	return out
}

// ==================== Advanced Options Methods ====================

// AdvancedOptionsFor returns the effective options for a host, with
// defaults filled in for anything not stored.
func (a *App) AdvancedOptionsFor(host string) (rdp.AdvancedOptions, error) {
	return a.registry.AdvancedOptions(strings.TrimSpace(host))
}

// SaveAdvancedOptions stores the options for a host. The monitor
// selection arrives as the raw text field; a malformed list selects all
// monitors.
func (a *App) SaveAdvancedOptions(host string, opts rdp.AdvancedOptions, monitorText string) error {
	opts.SelectedMonitors = rdp.ParseMonitorList(monitorText)
	return a.registry.SetAdvancedOptions(strings.TrimSpace(host), opts)
}

// ResolutionChoices returns the selectable window resolutions.
func (a *App) ResolutionChoices() []string {
	return rdp.Resolutions
}

// AudioModes returns the selectable audio modes.
func (a *App) AudioModes() []string {
	return rdp.AudioModes()
}

// IdentifyMonitors returns the connected monitors so the frontend can
// draw numbered overlay badges.
func (a *App) IdentifyMonitors() ([]display.Monitor, error) {
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return display.Detect(ctx)
}

// ==================== Credential Methods ====================

// ClearSavedPasswords removes every stored password.
func (a *App) ClearSavedPasswords() error {
	return a.store.Clear()
}

// SetKeyringEnabled turns keyring storage on or off for this run.
// Enabling fails when no keyring is available.
func (a *App) SetKeyringEnabled(enabled bool) error {
	return a.store.SetBackendEnabled(enabled)
}

// CredentialBackendInfo describes the credential backend for the Tools
// menu.
func (a *App) CredentialBackendInfo() BackendInfo {
	return BackendInfo{
		Available: a.store.BackendAvailable(),
		Enabled:   a.store.BackendEnabled(),
		Kind:      a.store.BackendKind(),
		Count:     a.store.Count(),
	}
}

// ==================== Client Install Methods ====================

// ClientStatus reports whether an RDP client binary is on the PATH.
func (a *App) ClientStatus() ClientInfo {
	binary, err := findClient()
	if err != nil {
		return ClientInfo{}
	}
	return ClientInfo{Installed: true, Binary: binary}
}

// InstallCommandLine returns the copy-pasteable install command for the
// detected package manager.
func (a *App) InstallCommandLine() (string, error) {
	mgr, err := installer.Detect()
	if err != nil {
		return "", err
	}
	return installer.ShellLine(mgr.ClientCommands()), nil
}

// InstallClient runs the client install in the embedded console,
// streaming output via install:data until install:exit fires.
func (a *App) InstallClient() error {
	mgr, err := installer.Detect()
	if err != nil {
		return err
	}
	return a.runInstall("FreeRDP", mgr.ClientCommands())
}

// InstallKeyringSupport runs the keyring service install in the embedded
// console.
func (a *App) InstallKeyringSupport() error {
	mgr, err := installer.Detect()
	if err != nil {
		return err
	}
	return a.runInstall("keyring support", mgr.KeyringCommands())
}

// runInstall starts the install in the embedded console. When no PTY can
// be allocated, the install opens in a terminal emulator window instead.
func (a *App) runInstall(title string, commands [][]string) error {
	err := a.console.Run(title, commands)
	if err == nil || errors.Is(err, ErrInstallRunning) {
		return err
	}

	termCmd, termErr := installer.PrepareTerminalInstall(title, commands)
	if termErr != nil {
		return err
	}
	cmd := exec.Command(termCmd[0], termCmd[1:]...)
	if startErr := cmd.Start(); startErr != nil {
		return fmt.Errorf("failed to open install terminal: %w", startErr)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// InstallConsoleWrite sends keystrokes to the install console, typically
// the sudo password.
func (a *App) InstallConsoleWrite(data string) error {
	return a.console.Write(data)
}

// InstallConsoleResize changes the install console dimensions.
func (a *App) InstallConsoleResize(cols, rows int) error {
	return a.console.Resize(cols, rows)
}

// InstallConsoleClose ends a running install.
func (a *App) InstallConsoleClose() error {
	return a.console.Close()
}

// ==================== Desktop Settings Methods ====================

// GetTheme returns the theme preference: "dark", "light", or "auto".
func (a *App) GetTheme() string {
	theme, err := a.settings.GetTheme()
	if err != nil {
		return "dark"
	}
	return theme
}

// GetEffectiveTheme resolves "auto" against the system setting.
func (a *App) GetEffectiveTheme() string {
	theme := a.GetTheme()
	if theme == "auto" {
		return detectSystemTheme()
	}
	return theme
}

// SetTheme sets the theme preference. Valid values: "dark", "light",
// "auto".
func (a *App) SetTheme(theme string) error {
	return a.settings.SetTheme(theme)
}

// GetConfirmDisconnect returns whether closing a live session asks for
// confirmation first.
func (a *App) GetConfirmDisconnect() bool {
	confirm, err := a.settings.GetConfirmDisconnect()
	if err != nil {
		return true
	}
	return confirm
}

// SetConfirmDisconnect sets the disconnect confirmation preference.
func (a *App) SetConfirmDisconnect(confirm bool) error {
	return a.settings.SetConfirmDisconnect(confirm)
}

// GetRememberLastHost returns whether the connect form prefills the last
// used host on startup.
func (a *App) GetRememberLastHost() bool {
	remember, err := a.settings.GetRememberLastHost()
	if err != nil {
		return true
	}
	return remember
}

// SetRememberLastHost sets the last-host prefill preference.
func (a *App) SetRememberLastHost(remember bool) error {
	return a.settings.SetRememberLastHost(remember)
}
