package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rjeffmyers/rdp2gui/internal/credentials"
	"github.com/rjeffmyers/rdp2gui/internal/secretservice"
)

// handleClearCredentials removes every saved password after confirmation.
func handleClearCredentials(args []string) {
	fs := flag.NewFlagSet("clear-credentials", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	yesShort := fs.Bool("y", false, "Skip the confirmation prompt (short)")
	jsonOutput := fs.Bool("json", false, "Output in JSON format")

	fs.Usage = func() {
		fmt.Println("Usage: rdp2gui clear-credentials [options]")
		fmt.Println()
		fmt.Println("Remove all saved passwords from the keyring and the fallback file.")
		fmt.Println("Connection profiles are kept.")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -y, --yes   Skip the confirmation prompt")
		fmt.Println("  --json      Output in JSON format")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(exitGeneralError)
	}

	store, err := credentials.NewStore(secretservice.NewClient("rdp2gui", "credentials"))
	if err != nil {
		outputError(*jsonOutput, fmt.Sprintf("failed to open credential store: %v", err), "STORAGE_ERROR")
		os.Exit(exitGeneralError)
	}

	count := store.Count()
	if count == 0 {
		outputSuccess(*jsonOutput, "No saved passwords.", map[string]interface{}{
			"success": true,
			"removed": 0,
		})
		return
	}

	if !*yes && !*yesShort {
		if !confirm(os.Stdin, fmt.Sprintf("Remove %d saved password(s)? [y/N] ", count)) {
			outputSuccess(*jsonOutput, "Aborted.", map[string]interface{}{
				"success": true,
				"removed": 0,
			})
			return
		}
	}

	if err := store.Clear(); err != nil {
		outputError(*jsonOutput, fmt.Sprintf("failed to clear credentials: %v", err), "STORAGE_ERROR")
		os.Exit(exitGeneralError)
	}

	outputSuccess(*jsonOutput, fmt.Sprintf("Removed %d saved password(s)", count), map[string]interface{}{
		"success": true,
		"removed": count,
	})
}

// confirm prints the prompt and reads one line. Only an explicit yes
// proceeds.
func confirm(r io.Reader, prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
