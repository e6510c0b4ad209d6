package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rjeffmyers/rdp2gui/internal/connection"
	"github.com/rjeffmyers/rdp2gui/internal/credentials"
	"github.com/rjeffmyers/rdp2gui/internal/display"
	"github.com/rjeffmyers/rdp2gui/internal/installer"
	"github.com/rjeffmyers/rdp2gui/internal/rdp"
	"github.com/rjeffmyers/rdp2gui/internal/secretservice"
)

// doctorReport is the JSON shape of the environment checks.
type doctorReport struct {
	Success        bool              `json:"success"`
	Client         doctorClient      `json:"client"`
	Backend        doctorBackend     `json:"credential_backend"`
	ConfigPath     string            `json:"config_path,omitempty"`
	ConfigExists   bool              `json:"config_exists"`
	FallbackPath   string            `json:"credentials_path,omitempty"`
	FallbackExists bool              `json:"credentials_exist"`
	Monitors       []display.Monitor `json:"monitors,omitempty"`
	MonitorError   string            `json:"monitor_error,omitempty"`
}

type doctorClient struct {
	Installed   bool   `json:"installed"`
	Binary      string `json:"binary,omitempty"`
	InstallHint string `json:"install_hint,omitempty"`
}

type doctorBackend struct {
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
}

// handleDoctor checks the environment the connections depend on. Exits 2
// when the client binary is missing so scripts can branch on it.
func handleDoctor(args []string) {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output in JSON format")

	fs.Usage = func() {
		fmt.Println("Usage: rdp2gui doctor [options]")
		fmt.Println()
		fmt.Println("Check the FreeRDP client, credential backend, config files and")
		fmt.Println("monitor layout.")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  --json   Output in JSON format")
		fmt.Println()
		fmt.Println("Exit codes:")
		fmt.Println("  0  Environment is usable")
		fmt.Println("  2  FreeRDP client not installed")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(exitGeneralError)
	}

	report := buildDoctorReport()

	if *jsonOutput {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		renderDoctorReport(report)
	}

	if !report.Client.Installed {
		os.Exit(exitNotInstalled)
	}
}

// buildDoctorReport runs every check and collects the results.
func buildDoctorReport() doctorReport {
	report := doctorReport{Success: true}

	if binary, err := rdp.FindClient(); err == nil {
		report.Client = doctorClient{Installed: true, Binary: binary}
	} else {
		report.Client = doctorClient{Installed: false}
		report.Success = false
		if manager, err := installer.Detect(); err == nil {
			report.Client.InstallHint = installer.ShellLine(manager.ClientCommands())
		}
	}

	backend := secretservice.NewClient("rdp2gui", "credentials")
	report.Backend = doctorBackend{Kind: backend.Kind(), Available: backend.Available()}

	if path, err := connection.DefaultPath(); err == nil {
		report.ConfigPath = path
		report.ConfigExists = fileExists(path)
	}
	if path, err := credentials.DefaultPath(); err == nil {
		report.FallbackPath = path
		report.FallbackExists = fileExists(path)
	}

	monitors, err := display.Detect(context.Background())
	if err != nil {
		report.MonitorError = err.Error()
	} else {
		report.Monitors = monitors
	}

	return report
}

// renderDoctorReport prints the checks in a human-readable form.
func renderDoctorReport(report doctorReport) {
	if report.Client.Installed {
		fmt.Printf("✓ FreeRDP client: %s\n", report.Client.Binary)
	} else {
		fmt.Println("✗ FreeRDP client: not installed")
		if report.Client.InstallHint != "" {
			fmt.Printf("  install with: %s\n", report.Client.InstallHint)
		}
	}

	switch {
	case report.Backend.Kind == secretservice.KindNone:
		fmt.Println("✗ Credential backend: none (passwords fall back to a local file)")
	case report.Backend.Available:
		fmt.Printf("✓ Credential backend: %s\n", report.Backend.Kind)
	default:
		fmt.Printf("✗ Credential backend: %s (detected but unavailable)\n", report.Backend.Kind)
	}

	fmt.Printf("%s Connections file: %s\n", existsMark(report.ConfigExists), report.ConfigPath)
	fmt.Printf("%s Credentials file: %s\n", existsMark(report.FallbackExists), report.FallbackPath)

	if report.MonitorError != "" {
		fmt.Printf("✗ Monitors: %s\n", report.MonitorError)
		return
	}
	fmt.Printf("✓ Monitors: %d detected\n", len(report.Monitors))
	for _, m := range report.Monitors {
		fmt.Printf("  [%d] %s %dx%d at %d,%d\n", m.Index, m.Name, m.Width, m.Height, m.X, m.Y)
	}
}

func existsMark(exists bool) string {
	if exists {
		return "✓"
	}
	return "-"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
