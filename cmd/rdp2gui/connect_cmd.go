package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/rjeffmyers/rdp2gui/internal/connection"
	"github.com/rjeffmyers/rdp2gui/internal/credentials"
	"github.com/rjeffmyers/rdp2gui/internal/rdp"
	"github.com/rjeffmyers/rdp2gui/internal/secretservice"
)

// handleConnect launches the client in the foreground using the stored
// profile and saved password.
func handleConnect(args []string) {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	user := fs.String("user", "", "Username (defaults to the stored profile)")
	userShort := fs.String("u", "", "Username (short)")
	domain := fs.String("domain", "", "Domain (defaults to the stored profile)")
	domainShort := fs.String("d", "", "Domain (short)")
	passwordStdin := fs.Bool("password-stdin", false, "Read the password from standard input")

	fs.Usage = func() {
		fmt.Println("Usage: rdp2gui connect [options] <host>")
		fmt.Println()
		fmt.Println("Connect to a host with its stored profile and advanced options.")
		fmt.Println("The client runs in the foreground; its exit code is propagated.")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -u, --user <name>     Username (defaults to the stored profile)")
		fmt.Println("  -d, --domain <name>   Domain (defaults to the stored profile)")
		fmt.Println("  --password-stdin      Read the password from standard input")
		fmt.Println()
		fmt.Println("Exit codes:")
		fmt.Println("  0  Client exited cleanly")
		fmt.Println("  1  Validation or launch error")
		fmt.Println("  2  FreeRDP client not installed")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  rdp2gui connect server01")
		fmt.Println("  echo \"$PASSWORD\" | rdp2gui connect -u alice --password-stdin server01")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(exitGeneralError)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(exitGeneralError)
	}
	host := strings.TrimSpace(fs.Arg(0))
	if host == "" {
		outputError(false, "host is required", "MISSING_HOST")
		os.Exit(exitGeneralError)
	}

	registry, err := connection.NewRegistry()
	if err != nil {
		outputError(false, fmt.Sprintf("failed to open connection registry: %v", err), "STORAGE_ERROR")
		os.Exit(exitGeneralError)
	}
	store, err := credentials.NewStore(secretservice.NewClient("rdp2gui", "credentials"))
	if err != nil {
		outputError(false, fmt.Sprintf("failed to open credential store: %v", err), "STORAGE_ERROR")
		os.Exit(exitGeneralError)
	}

	stored, err := registry.Lookup(host)
	if err != nil {
		outputError(false, fmt.Sprintf("failed to load profile: %v", err), "LOAD_ERROR")
		os.Exit(exitGeneralError)
	}

	resolved, err := resolveConnectProfile(host, mergeFlags(*user, *userShort), mergeFlags(*domain, *domainShort), stored)
	if err != nil {
		outputError(false, err.Error(), "MISSING_USERNAME")
		os.Exit(exitGeneralError)
	}

	var password string
	if *passwordStdin {
		password, err = readPasswordStdin(os.Stdin)
		if err != nil {
			outputError(false, err.Error(), "MISSING_PASSWORD")
			os.Exit(exitGeneralError)
		}
	} else {
		var ok bool
		password, ok = store.PasswordFor(host, resolved.Username)
		if !ok {
			outputError(false,
				fmt.Sprintf("no saved password for %s as %s (use --password-stdin)", host, resolved.Username),
				"MISSING_PASSWORD")
			os.Exit(exitGeneralError)
		}
	}

	binary, err := rdp.FindClient()
	if err != nil {
		outputError(false, "FreeRDP client not found; run 'rdp2gui doctor' for install hints", "NOT_INSTALLED")
		os.Exit(exitNotInstalled)
	}

	opts, err := registry.AdvancedOptions(host)
	if err != nil {
		log.Printf("Warning: using default options for %s: %v", host, err)
		opts = rdp.DefaultOptions()
	}

	if err := registry.RecordUse(host, resolved.Username, resolved.Domain); err != nil {
		log.Printf("Warning: failed to record connection to %s: %v", host, err)
	}

	clientArgs := rdp.BuildArgs(rdp.ConnectionParams{
		Host:     host,
		Username: resolved.Username,
		Domain:   resolved.Domain,
		Password: password,
	}, opts)

	cmd := exec.Command(binary, clientArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		outputError(false, fmt.Sprintf("failed to run %s: %v", binary, err), "LAUNCH_ERROR")
		os.Exit(exitGeneralError)
	}
}

// connectProfile is the resolved identity for a connection.
type connectProfile struct {
	Username string
	Domain   string
}

// resolveConnectProfile merges explicit flags over the stored profile.
// The username must come from one of the two.
func resolveConnectProfile(host, flagUser, flagDomain string, stored *connection.Profile) (connectProfile, error) {
	resolved := connectProfile{
		Username: strings.TrimSpace(flagUser),
		Domain:   strings.TrimSpace(flagDomain),
	}
	if stored != nil {
		if resolved.Username == "" {
			resolved.Username = stored.Username
		}
		if resolved.Domain == "" {
			resolved.Domain = stored.Domain
		}
	}
	if resolved.Username == "" {
		return connectProfile{}, fmt.Errorf("no stored username for %s (use --user)", host)
	}
	return resolved, nil
}

// readPasswordStdin reads the password from stdin, trimming the trailing
// newline so piped input works.
func readPasswordStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(string(data), "\r\n")
	if password == "" {
		return "", fmt.Errorf("empty password on standard input")
	}
	return password, nil
}
