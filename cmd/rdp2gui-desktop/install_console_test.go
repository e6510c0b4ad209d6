package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInstallConsoleIdle verifies the console's behavior before any
// install has started.
func TestInstallConsoleIdle(t *testing.T) {
	c := NewInstallConsole()

	assert.Error(t, c.Write("password\n"), "writing with no install running should fail")
	assert.NoError(t, c.Resize(80, 24), "resizing an idle console is a no-op")
	assert.NoError(t, c.Close(), "closing an idle console is a no-op")
}
