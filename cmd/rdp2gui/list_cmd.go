package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rjeffmyers/rdp2gui/internal/connection"
)

// handleList prints the recently used connections, most recent first.
func handleList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output JSON")

	fs.Usage = func() {
		fmt.Println("Usage: rdp2gui list [options]")
		fmt.Println()
		fmt.Println("Show recent connections with their stored profiles.")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  --json    Output JSON")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(exitGeneralError)
	}

	registry, err := connection.NewRegistry()
	if err != nil {
		outputError(*jsonOutput, fmt.Sprintf("failed to open connection registry: %v", err), "STORAGE_ERROR")
		os.Exit(exitGeneralError)
	}

	entries, err := recentEntries(registry)
	if err != nil {
		outputError(*jsonOutput, fmt.Sprintf("failed to load connections: %v", err), "LOAD_ERROR")
		os.Exit(exitGeneralError)
	}

	if *jsonOutput {
		outputSuccess(true, "", map[string]interface{}{
			"success":     true,
			"connections": entries,
		})
		return
	}

	if len(entries) == 0 {
		fmt.Println("No recent connections.")
		return
	}
	fmt.Print(renderRecentTable(entries))
}

// recentEntry is one row of the list output.
type recentEntry struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Domain   string `json:"domain,omitempty"`
	LastUsed string `json:"lastUsed,omitempty"`
}

// recentEntries joins the recent host list with the stored profiles.
func recentEntries(registry *connection.Registry) ([]recentEntry, error) {
	recent, err := registry.Recent()
	if err != nil {
		return nil, err
	}

	entries := make([]recentEntry, 0, len(recent))
	for _, host := range recent {
		entry := recentEntry{Host: host}
		profile, err := registry.Lookup(host)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			entry.Username = profile.Username
			entry.Domain = profile.Domain
			entry.LastUsed = profile.LastUsed
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// renderRecentTable formats entries as a fixed-width table.
func renderRecentTable(entries []recentEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-28s %-20s %-16s %s\n", "HOST", "USERNAME", "DOMAIN", "LAST USED")
	for _, e := range entries {
		domain := e.Domain
		if domain == "" {
			domain = "-"
		}
		fmt.Fprintf(&b, "%-28s %-20s %-16s %s\n", e.Host, e.Username, domain, e.LastUsed)
	}
	return b.String()
}
