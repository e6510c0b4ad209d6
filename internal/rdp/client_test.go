package rdp

import (
	"errors"
	"os/exec"
	"testing"
)

func TestFindClient(t *testing.T) {
	origLookPath := lookPath
	defer func() { lookPath = origLookPath }()

	available := map[string]bool{"xfreerdp3": true, "xfreerdp": true}
	lookPath = func(name string) (string, error) {
		if available[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}

	name, err := FindClient()
	if err != nil {
		t.Fatalf("FindClient: %v", err)
	}
	if name != "xfreerdp3" {
		t.Errorf("FindClient = %q, want xfreerdp3 preferred over xfreerdp", name)
	}

	delete(available, "xfreerdp3")
	name, err = FindClient()
	if err != nil {
		t.Fatalf("FindClient: %v", err)
	}
	if name != "xfreerdp" {
		t.Errorf("FindClient = %q, want xfreerdp fallback", name)
	}

	delete(available, "xfreerdp")
	if _, err := FindClient(); !errors.Is(err, ErrClientNotInstalled) {
		t.Errorf("FindClient with nothing installed = %v, want ErrClientNotInstalled", err)
	}
}

func TestClientInstalled(t *testing.T) {
	origLookPath := lookPath
	defer func() { lookPath = origLookPath }()

	lookPath = func(name string) (string, error) { return "", exec.ErrNotFound }
	if ClientInstalled() {
		t.Error("ClientInstalled must report false with nothing on PATH")
	}

	lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	if !ClientInstalled() {
		t.Error("ClientInstalled must report true when a client binary resolves")
	}
}
