package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rjeffmyers/rdp2gui/internal/connection"
)

func TestResolveConnectProfileFlagsOnly(t *testing.T) {
	resolved, err := resolveConnectProfile("server01", "alice", "CORP", nil)
	if err != nil {
		t.Fatalf("resolveConnectProfile failed: %v", err)
	}
	if resolved.Username != "alice" {
		t.Errorf("Username mismatch: got %q, want %q", resolved.Username, "alice")
	}
	if resolved.Domain != "CORP" {
		t.Errorf("Domain mismatch: got %q, want %q", resolved.Domain, "CORP")
	}
}

func TestResolveConnectProfileStoredFallback(t *testing.T) {
	stored := &connection.Profile{Username: "bob", Domain: "LAB"}

	resolved, err := resolveConnectProfile("server01", "", "", stored)
	if err != nil {
		t.Fatalf("resolveConnectProfile failed: %v", err)
	}
	if resolved.Username != "bob" {
		t.Errorf("Username mismatch: got %q, want %q", resolved.Username, "bob")
	}
	if resolved.Domain != "LAB" {
		t.Errorf("Domain mismatch: got %q, want %q", resolved.Domain, "LAB")
	}
}

func TestResolveConnectProfileFlagsWin(t *testing.T) {
	stored := &connection.Profile{Username: "bob", Domain: "LAB"}

	resolved, err := resolveConnectProfile("server01", "alice", "", stored)
	if err != nil {
		t.Fatalf("resolveConnectProfile failed: %v", err)
	}
	if resolved.Username != "alice" {
		t.Errorf("flag username should win: got %q", resolved.Username)
	}
	if resolved.Domain != "LAB" {
		t.Errorf("stored domain should fill the gap: got %q", resolved.Domain)
	}
}

func TestResolveConnectProfileMissingUsername(t *testing.T) {
	if _, err := resolveConnectProfile("server01", "", "", nil); err == nil {
		t.Fatal("Expected error without a username source")
	}
	if _, err := resolveConnectProfile("server01", "  ", "", &connection.Profile{}); err == nil {
		t.Fatal("Expected error when flag is blank and profile is empty")
	}
}

func TestReadPasswordStdin(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trailing newline", "hunter2\n", "hunter2"},
		{"crlf", "hunter2\r\n", "hunter2"},
		{"no newline", "hunter2", "hunter2"},
		{"inner spaces kept", "pass word\n", "pass word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPasswordStdin(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("readPasswordStdin failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Password mismatch: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadPasswordStdinEmpty(t *testing.T) {
	if _, err := readPasswordStdin(strings.NewReader("\n")); err == nil {
		t.Fatal("Expected error for empty password")
	}
	if _, err := readPasswordStdin(strings.NewReader("")); err == nil {
		t.Fatal("Expected error for empty input")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes short", "y\n", true},
		{"yes long", "yes\n", true},
		{"yes upper", "Y\n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confirm(strings.NewReader(tt.input), "proceed? ")
			if got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRecentEntries(t *testing.T) {
	registry, err := connection.NewRegistryWithPath(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}

	if err := registry.RecordUse("server01", "alice", "CORP"); err != nil {
		t.Fatalf("RecordUse failed: %v", err)
	}
	if err := registry.RecordUse("server02", "bob", ""); err != nil {
		t.Fatalf("RecordUse failed: %v", err)
	}

	entries, err := recentEntries(registry)
	if err != nil {
		t.Fatalf("recentEntries failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Host != "server02" {
		t.Errorf("Most recent host first: got %q, want %q", entries[0].Host, "server02")
	}
	if entries[0].Username != "bob" {
		t.Errorf("Username mismatch: got %q, want %q", entries[0].Username, "bob")
	}
	if entries[1].Host != "server01" || entries[1].Domain != "CORP" {
		t.Errorf("Second entry mismatch: got %+v", entries[1])
	}
	if entries[0].LastUsed == "" {
		t.Error("LastUsed should be recorded")
	}
}

func TestRenderRecentTable(t *testing.T) {
	out := renderRecentTable([]recentEntry{
		{Host: "server01", Username: "alice", Domain: "CORP", LastUsed: "2026-08-21 10:00:00"},
		{Host: "server02", Username: "bob"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "HOST") {
		t.Errorf("Missing header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "server01") || !strings.Contains(lines[1], "CORP") {
		t.Errorf("Row mismatch: %q", lines[1])
	}
	if !strings.Contains(lines[2], " - ") {
		t.Errorf("Empty domain should render as -: %q", lines[2])
	}
}

func TestMergeFlags(t *testing.T) {
	if got := mergeFlags("long", "short"); got != "long" {
		t.Errorf("Long flag should win: got %q", got)
	}
	if got := mergeFlags("", "short"); got != "short" {
		t.Errorf("Short flag should fill: got %q", got)
	}
	if got := mergeFlags("", ""); got != "" {
		t.Errorf("Both empty should stay empty: got %q", got)
	}
}

func TestExistsMark(t *testing.T) {
	if got := existsMark(true); got != "✓" {
		t.Errorf("existsMark(true) = %q", got)
	}
	if got := existsMark(false); got != "-" {
		t.Errorf("existsMark(false) = %q", got)
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if fileExists(path) {
		t.Error("Missing file reported as existing")
	}

	registry, err := connection.NewRegistryWithPath(path)
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	if err := registry.RecordUse("server01", "alice", ""); err != nil {
		t.Fatalf("RecordUse failed: %v", err)
	}
	if !fileExists(path) {
		t.Error("Written file reported as missing")
	}
}
