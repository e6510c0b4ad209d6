// Package launcher starts remote desktop client processes and supervises
// them until they exit.
package launcher

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// terminateGrace is how long a session gets to disconnect cleanly after
// SIGTERM before it is killed. Variable so tests can shorten it.
var terminateGrace = 5 * time.Second

// Spec describes a session to launch.
type Spec struct {
	Client   string // client binary, resolved by the caller
	Args     []string
	Host     string
	Username string
}

// Session is one running client process.
type Session struct {
	ID        string
	Host      string
	Username  string
	PID       int
	StartedAt time.Time

	proc Process
	done chan struct{}
}

// Done is closed once the session's process has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// ExitResult describes how a session ended.
type ExitResult struct {
	SessionID string
	Host      string
	Err       error  // nil on clean exit
	Stderr    string // tail of client output, kept for diagnostics
}

// ExitHandler receives the outcome when a session's process exits. It runs
// on the watcher goroutine.
type ExitHandler func(result ExitResult)

// Manager launches client processes and tracks the running ones.
type Manager struct {
	runner Runner

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager using the given runner, or a real process
// runner when nil.
func NewManager(runner Runner) *Manager {
	if runner == nil {
		runner = NewRunner()
	}
	return &Manager{
		runner:   runner,
		sessions: make(map[string]*Session),
	}
}

// Launch starts the client described by spec and watches it until exit.
func (m *Manager) Launch(spec Spec, onExit ExitHandler) (*Session, error) {
	proc, err := m.runner.Start(spec.Client, spec.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", spec.Client, err)
	}

	s := &Session{
		ID:        uuid.New().String(),
		Host:      spec.Host,
		Username:  spec.Username,
		PID:       proc.Pid(),
		StartedAt: time.Now(),
		proc:      proc,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	go m.watch(s, onExit)

	return s, nil
}

// watch blocks until the process exits, then removes the session and
// reports the outcome. The session is removed before done is closed so
// anyone woken by Done sees it gone.
func (m *Manager) watch(s *Session, onExit ExitHandler) {
	err := s.proc.Wait()

	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	close(s.done)

	if onExit != nil {
		onExit(ExitResult{
			SessionID: s.ID,
			Host:      s.Host,
			Err:       err,
			Stderr:    s.proc.Stderr(),
		})
	}
}

// Terminate asks a session to disconnect, escalating to SIGKILL when the
// process does not exit within the grace period.
func (m *Manager) Terminate(id string) error {
	m.mu.Lock()
	s := m.sessions[id]
	m.mu.Unlock()

	if s == nil {
		return fmt.Errorf("no such session: %s", id)
	}

	if err := s.proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("failed to signal session %s: %w", id, err)
	}

	select {
	case <-s.done:
		return nil
	case <-time.After(terminateGrace):
	}

	if err := s.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill session %s: %w", id, err)
	}
	select {
	case <-s.done:
	case <-time.After(terminateGrace):
	}
	return nil
}

// Session returns the running session with the given ID, or nil.
func (m *Manager) Session(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sessions[id]
}

// Sessions returns the currently running sessions, newest first.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Shutdown terminates every running session and waits for them to finish.
func (m *Manager) Shutdown() {
	var wg sync.WaitGroup
	for _, s := range m.Sessions() {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.Terminate(id); err != nil {
				log.Printf("Warning: failed to terminate session %s: %v", id, err)
			}
		}(s.ID)
	}
	wg.Wait()
}
