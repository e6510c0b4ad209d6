package launcher

import (
	"io"
	"os"
	"os/exec"
	"sync"
)

// stderrTailLimit bounds how much client output is kept for exit
// diagnostics.
const stderrTailLimit = 4096

// Runner abstracts process execution, allowing session handling to be
// tested without a real client binary.
type Runner interface {
	Start(name string, args ...string) (Process, error)
}

// Process is a started child process.
type Process interface {
	// Wait blocks until the process exits. A non-zero exit status is
	// returned as an error.
	Wait() error
	// Signal delivers a signal to the process.
	Signal(sig os.Signal) error
	// Kill forcibly terminates the process.
	Kill() error
	Pid() int
	// Stderr returns the tail of the process's error output.
	Stderr() string
}

// execRunner launches real processes.
type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Start(name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)

	tail := &tailBuffer{max: stderrTailLimit}
	cmd.Stdout = io.Discard
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stderr: tail}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stderr *tailBuffer
}

func (p *execProcess) Wait() error { return p.cmd.Wait() }

func (p *execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }

func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Stderr() string { return p.stderr.String() }

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return string(b.buf)
}
