package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Version is set at build time via ldflags.
var Version = "0.1.0-dev"

// Exit codes shared by all subcommands
const (
	exitSuccess      = 0
	exitGeneralError = 1
	exitNotInstalled = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitGeneralError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "list":
		handleList(args)
	case "connect":
		handleConnect(args)
	case "clear-credentials":
		handleClearCredentials(args)
	case "doctor":
		handleDoctor(args)
	case "version", "--version", "-v":
		fmt.Println(Version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(exitGeneralError)
	}
}

func printUsage() {
	fmt.Println("Usage: rdp2gui <command> [options]")
	fmt.Println()
	fmt.Println("Launch remote desktop sessions from the command line.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list               Show recent connections")
	fmt.Println("  connect <host>     Connect to a host using its stored profile")
	fmt.Println("  clear-credentials  Remove all saved passwords")
	fmt.Println("  doctor             Check client, keyring and configuration")
	fmt.Println("  version            Print the version")
	fmt.Println()
	fmt.Println("Run 'rdp2gui <command> --help' for command options.")
}

// mergeFlags returns the long flag value when set, the short one
// otherwise.
func mergeFlags(long, short string) string {
	if long != "" {
		return long
	}
	return short
}

// outputError outputs an error message in the appropriate format
func outputError(jsonMode bool, message, code string) {
	if jsonMode {
		output, _ := json.MarshalIndent(map[string]interface{}{
			"success": false,
			"error":   message,
			"code":    code,
		}, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// outputSuccess outputs a success message in the appropriate format
func outputSuccess(jsonMode bool, message string, data map[string]interface{}) {
	if jsonMode {
		output, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("✓ %s\n", message)
	}
}
