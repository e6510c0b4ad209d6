// Package display queries the monitor layout through xrandr.
package display

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// queryTimeout bounds the xrandr call; a hung X server should not hang the
// app.
const queryTimeout = 5 * time.Second

// Monitor describes one connected output with an active geometry.
type Monitor struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// geometryRe matches xrandr geometry tokens like 1920x1080+1920+0.
var geometryRe = regexp.MustCompile(`^(\d+)x(\d+)\+(\d+)\+(\d+)`)

// Hook for testing; production runs the real xrandr.
var runXrandr = func(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "xrandr", "--query").Output()
}

// Detect returns the connected monitors in xrandr order. The indices match
// what the FreeRDP monitor selection expects.
func Detect(ctx context.Context) ([]Monitor, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := runXrandr(ctx)
	if err != nil {
		return nil, fmt.Errorf("xrandr query failed: %w", err)
	}
	return parseXrandr(string(out)), nil
}

// parseXrandr extracts connected outputs carrying a geometry. Outputs that
// are connected but switched off have no geometry and get no index, which
// matches how FreeRDP numbers monitors.
func parseXrandr(out string) []Monitor {
	var monitors []Monitor
	index := 0

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, " connected") || strings.Contains(line, "disconnected") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name := parts[0]

		for _, part := range parts {
			m := geometryRe.FindStringSubmatch(part)
			if m == nil {
				continue
			}
			width, _ := strconv.Atoi(m[1])
			height, _ := strconv.Atoi(m[2])
			x, _ := strconv.Atoi(m[3])
			y, _ := strconv.Atoi(m[4])
			monitors = append(monitors, Monitor{
				Index:  index,
				Name:   name,
				Width:  width,
				Height: height,
				X:      x,
				Y:      y,
			})
			index++
			break
		}
	}

	return monitors
}
