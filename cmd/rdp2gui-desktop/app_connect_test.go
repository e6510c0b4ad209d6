package main

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjeffmyers/rdp2gui/internal/connection"
	"github.com/rjeffmyers/rdp2gui/internal/credentials"
	"github.com/rjeffmyers/rdp2gui/internal/launcher"
	"github.com/rjeffmyers/rdp2gui/internal/rdp"
)

// stubProcess is a fake launched client that exits on any signal.
type stubProcess struct {
	once sync.Once
	done chan struct{}
	err  error
}

func (p *stubProcess) finish(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *stubProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *stubProcess) Signal(sig os.Signal) error {
	p.finish(nil)
	return nil
}

func (p *stubProcess) Kill() error {
	p.finish(errors.New("killed"))
	return nil
}

func (p *stubProcess) Pid() int { return 101 }

func (p *stubProcess) Stderr() string { return "" }

// stubRunner records launches and hands out stub processes.
type stubRunner struct {
	mu       sync.Mutex
	lastName string
	lastArgs []string
	procs    []*stubProcess
}

func (r *stubRunner) Start(name string, args ...string) (launcher.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &stubProcess{done: make(chan struct{})}
	r.lastName = name
	r.lastArgs = args
	r.procs = append(r.procs, p)
	return p, nil
}

func (r *stubRunner) args() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lastArgs...)
}

// newTestApp builds an App wired to temp-dir storage and a stub runner.
func newTestApp(t *testing.T) (*App, *stubRunner) {
	t.Helper()
	dir := t.TempDir()

	registry, err := connection.NewRegistryWithPath(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	store, err := credentials.NewStoreWithPath(nil, filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)

	runner := &stubRunner{}
	app := &App{
		registry: registry,
		store:    store,
		sessions: launcher.NewManager(runner),
		settings: &DesktopSettingsManager{configPath: filepath.Join(dir, "settings.toml")},
		console:  NewInstallConsole(),
	}
	return app, runner
}

// stubClient points client discovery at a fixed result.
func stubClient(t *testing.T, binary string, err error) {
	t.Helper()
	oldFind := findClient
	findClient = func() (string, error) { return binary, err }
	t.Cleanup(func() { findClient = oldFind })
}

// TestConnectValidatesInput verifies empty fields are rejected before
// anything is launched.
func TestConnectValidatesInput(t *testing.T) {
	app, runner := newTestApp(t)
	stubClient(t, "xfreerdp", nil)

	requests := []ConnectRequest{
		{Username: "alice", Password: "secret"},
		{Host: "server01", Password: "secret"},
		{Host: "server01", Username: "alice"},
		{Host: "   ", Username: "alice", Password: "secret"},
	}
	for _, req := range requests {
		_, err := app.Connect(req)
		assert.Error(t, err, "request %+v should be rejected", req)
	}
	assert.Empty(t, runner.procs, "nothing should have been launched")
}

// TestConnectLaunchesClient verifies the full connect flow: password
// saved, profile recorded, client launched with the resolved arguments.
func TestConnectLaunchesClient(t *testing.T) {
	app, runner := newTestApp(t)
	stubClient(t, "xfreerdp", nil)

	info, err := app.Connect(ConnectRequest{
		Host:             "server01",
		Username:         "alice",
		Domain:           "CORP",
		Password:         "secret",
		RememberPassword: true,
	})
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "server01", info.Host)
	assert.True(t, info.PasswordSaved)

	args := runner.args()
	assert.Equal(t, "xfreerdp", runner.lastName)
	require.NotEmpty(t, args)
	assert.Equal(t, "/v:server01", args[0])
	assert.Contains(t, args, "/u:alice")
	assert.Contains(t, args, "/d:CORP")
	assert.Contains(t, args, "/p:secret")

	password, ok := app.store.PasswordFor("server01", "alice")
	assert.True(t, ok)
	assert.Equal(t, "secret", password)

	recent, err := app.registry.Recent()
	require.NoError(t, err)
	assert.Equal(t, []string{"server01"}, recent)
}

// TestConnectClientMissing verifies the not-installed condition reaches
// the caller unchanged.
func TestConnectClientMissing(t *testing.T) {
	app, _ := newTestApp(t)
	stubClient(t, "", rdp.ErrClientNotInstalled)

	_, err := app.Connect(ConnectRequest{
		Host:     "server01",
		Username: "alice",
		Password: "secret",
	})
	assert.ErrorIs(t, err, rdp.ErrClientNotInstalled)
}

// TestConnectAppliesStoredOptions verifies saved advanced options shape
// the launch arguments.
func TestConnectAppliesStoredOptions(t *testing.T) {
	app, runner := newTestApp(t)
	stubClient(t, "xfreerdp", nil)

	opts := rdp.DefaultOptions()
	opts.Fullscreen = false
	opts.Resolution = "1280x720"
	opts.Multimon = true
	require.NoError(t, app.SaveAdvancedOptions("server01", opts, "1,0"))

	_, err := app.Connect(ConnectRequest{
		Host:     "server01",
		Username: "alice",
		Password: "secret",
	})
	require.NoError(t, err)

	args := runner.args()
	assert.Contains(t, args, "/size:1280x720")
	assert.NotContains(t, args, "/f")
	assert.Contains(t, args, "/multimon")
	assert.Contains(t, args, "/monitors:1,0")
}

// TestConnectDoesNotSaveUnlessAsked verifies the remember checkbox
// controls persistence.
func TestConnectDoesNotSaveUnlessAsked(t *testing.T) {
	app, _ := newTestApp(t)
	stubClient(t, "xfreerdp", nil)

	info, err := app.Connect(ConnectRequest{
		Host:     "server01",
		Username: "alice",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.False(t, info.PasswordSaved)

	_, ok := app.store.PasswordFor("server01", "alice")
	assert.False(t, ok)
}

// TestDisconnectEndsSession verifies Disconnect tears the session down
// and ActiveSessions empties out.
func TestDisconnectEndsSession(t *testing.T) {
	app, _ := newTestApp(t)
	stubClient(t, "xfreerdp", nil)

	info, err := app.Connect(ConnectRequest{
		Host:     "server01",
		Username: "alice",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Len(t, app.ActiveSessions(), 1)

	require.NoError(t, app.Disconnect(info.ID))

	deadline := time.Now().Add(2 * time.Second)
	for len(app.ActiveSessions()) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Empty(t, app.ActiveSessions())
}

// TestStoredPasswordPrefill verifies the password field prefill path.
func TestStoredPasswordPrefill(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.store.SavePassword("server01", "alice", "secret"))

	assert.Equal(t, "secret", app.StoredPassword("server01", "alice"))
	assert.Equal(t, "", app.StoredPassword("server01", "bob"))
}

// TestListRecentConnections verifies recent hosts come back joined with
// their profiles, most recent first.
func TestListRecentConnections(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.registry.RecordUse("server01", "alice", "CORP"))
	require.NoError(t, app.registry.RecordUse("server02", "bob", ""))

	list, err := app.ListRecentConnections()
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "server02", list[0].Host)
	assert.Equal(t, "bob", list[0].Username)
	assert.Equal(t, "server01", list[1].Host)
	assert.Equal(t, "CORP", list[1].Domain)
	assert.NotEmpty(t, list[0].LastUsed)
}

// TestLookupConnection verifies profile prefill and the nil result for
// unknown hosts.
func TestLookupConnection(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.registry.RecordUse("server01", "alice", "CORP"))

	rc, err := app.LookupConnection("server01")
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, "alice", rc.Username)

	rc, err = app.LookupConnection("unknown")
	require.NoError(t, err)
	assert.Nil(t, rc)
}

// TestSaveAdvancedOptionsParsesMonitorText verifies the monitor text
// field follows the discard-on-malformed rule.
func TestSaveAdvancedOptionsParsesMonitorText(t *testing.T) {
	app, _ := newTestApp(t)

	opts := rdp.DefaultOptions()
	require.NoError(t, app.SaveAdvancedOptions("server01", opts, "2, 0"))

	stored, err := app.AdvancedOptionsFor("server01")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, stored.SelectedMonitors)

	require.NoError(t, app.SaveAdvancedOptions("server01", opts, "1,x"))
	stored, err = app.AdvancedOptionsFor("server01")
	require.NoError(t, err)
	assert.Empty(t, stored.SelectedMonitors)
}

// TestCredentialBackendInfo verifies the Tools menu summary for a system
// without a keyring.
func TestCredentialBackendInfo(t *testing.T) {
	app, _ := newTestApp(t)

	info := app.CredentialBackendInfo()
	assert.False(t, info.Available)
	assert.True(t, info.Enabled)
	assert.Equal(t, "none", info.Kind)
	assert.Equal(t, 0, info.Count)
}

// TestSetKeyringEnabled verifies enabling without a keyring fails while
// disabling always succeeds.
func TestSetKeyringEnabled(t *testing.T) {
	app, _ := newTestApp(t)

	assert.NoError(t, app.SetKeyringEnabled(false))
	assert.ErrorIs(t, app.SetKeyringEnabled(true), credentials.ErrBackendUnavailable)
}

// TestClearSavedPasswords verifies clearing leaves profiles intact.
func TestClearSavedPasswords(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.registry.RecordUse("server01", "alice", ""))
	require.NoError(t, app.store.SavePassword("server01", "alice", "secret"))

	require.NoError(t, app.ClearSavedPasswords())

	_, ok := app.store.PasswordFor("server01", "alice")
	assert.False(t, ok)

	profile, err := app.registry.Lookup("server01")
	require.NoError(t, err)
	assert.NotNil(t, profile, "clearing passwords must not delete profiles")
}

// TestChoiceLists verifies the fixed option lists exposed to the
// frontend.
func TestChoiceLists(t *testing.T) {
	app, _ := newTestApp(t)

	resolutions := app.ResolutionChoices()
	require.Len(t, resolutions, 8)
	assert.Equal(t, "1920x1080", resolutions[0])

	assert.Equal(t, []string{"local", "remote", "disabled"}, app.AudioModes())
}

// TestClientStatus verifies the installed and missing cases.
func TestClientStatus(t *testing.T) {
	app, _ := newTestApp(t)

	stubClient(t, "xfreerdp3", nil)
	status := app.ClientStatus()
	assert.True(t, status.Installed)
	assert.Equal(t, "xfreerdp3", status.Binary)

	stubClient(t, "", rdp.ErrClientNotInstalled)
	status = app.ClientStatus()
	assert.False(t, status.Installed)
	assert.Empty(t, status.Binary)
}
