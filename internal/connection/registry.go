// Package connection persists per-host connection profiles and the
// recently used host list.
package connection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rjeffmyers/rdp2gui/internal/rdp"
)

const (
	appDirName       = "rdp2gui"
	registryFileName = "config.json"

	// maxRecent caps the recently used list shown in the host dropdown.
	maxRecent = 10

	// LastUsedLayout is the timestamp format stored in profiles.
	LastUsedLayout = "2006-01-02 15:04:05"
)

// Profile records what was last used to reach a host. Advanced holds the
// stored session options document verbatim; partial documents written by
// older versions stay partial until the options are saved again.
type Profile struct {
	Username string          `json:"username"`
	Domain   string          `json:"domain"`
	LastUsed string          `json:"last_used"`
	Advanced json.RawMessage `json:"advanced,omitempty"`
}

// Document is the on-disk shape of the registry file.
type Document struct {
	Connections map[string]*Profile `json:"connections"`
	Recent      []string            `json:"recent"`
}

// Registry handles persistence of connection profiles.
// Thread-safe with mutex protection for concurrent access.
type Registry struct {
	path string
	mu   sync.Mutex // Protects all file operations
}

// DefaultPath returns the registry file under the user config directory.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(base, appDirName, registryFileName), nil
}

// NewRegistry opens the registry at the default location, creating the
// config directory when missing.
func NewRegistry() (*Registry, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewRegistryWithPath(path)
}

// NewRegistryWithPath opens a registry backed by the given file.
func NewRegistryWithPath(path string) (*Registry, error) {
	// 0700 keeps stored hosts and usernames away from other users.
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	r := &Registry{path: path}

	// Clean up any leftover temp files from previous crashes
	r.cleanupTempFiles()

	return r, nil
}

// Path returns the file path this registry is using
func (r *Registry) Path() string {
	return r.path
}

// Lookup returns the stored profile for a host, or nil when the host has
// never been used.
func (r *Registry) Lookup(host string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	p, ok := doc.Connections[host]
	if !ok {
		return nil, nil
	}

	prof := *p
	return &prof, nil
}

// RecordUse stores the username and domain last used for a host and moves
// the host to the front of the recently used list. Stored advanced options
// for the host are left untouched.
func (r *Registry) RecordUse(host, username, domain string) error {
	if host == "" {
		return fmt.Errorf("host is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	p := doc.Connections[host]
	if p == nil {
		p = &Profile{}
		doc.Connections[host] = p
	}
	p.Username = username
	p.Domain = domain
	p.LastUsed = time.Now().Format(LastUsedLayout)

	doc.Recent = promote(doc.Recent, host)

	return r.save(doc)
}

// Recent returns the recently used hosts, most recent first.
func (r *Registry) Recent() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	return append([]string(nil), doc.Recent...), nil
}

// Hosts returns every host with a stored profile, sorted for consistent
// listing.
func (r *Registry) Hosts() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	hosts := make([]string, 0, len(doc.Connections))
	for host := range doc.Connections {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts, nil
}

// AdvancedOptions returns the session options for a host, with stored
// values merged over the defaults. Hosts with nothing stored get the
// defaults.
func (r *Registry) AdvancedOptions(host string) (rdp.AdvancedOptions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return rdp.DefaultOptions(), err
	}

	p := doc.Connections[host]
	if p == nil {
		return rdp.DefaultOptions(), nil
	}
	return rdp.MergeOptions(p.Advanced), nil
}

// SetAdvancedOptions stores session options for a host. The profile's
// username and domain are left untouched; a profile is created when the
// host has none yet.
func (r *Registry) SetAdvancedOptions(host string, opts rdp.AdvancedOptions) error {
	if host == "" {
		return fmt.Errorf("host is required")
	}

	if opts.SelectedMonitors == nil {
		opts.SelectedMonitors = []int{}
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to marshal advanced options: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	p := doc.Connections[host]
	if p == nil {
		p = &Profile{}
		doc.Connections[host] = p
	}
	p.Advanced = raw

	return r.save(doc)
}

// promote moves host to the front of the list, dropping any earlier
// occurrence and clipping to maxRecent entries.
func promote(recent []string, host string) []string {
	out := make([]string, 0, len(recent)+1)
	out = append(out, host)
	for _, h := range recent {
		if h != host {
			out = append(out, h)
		}
	}
	if len(out) > maxRecent {
		out = out[:maxRecent]
	}
	return out
}
