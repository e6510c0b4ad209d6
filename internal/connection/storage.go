package connection

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

const (
	// maxBackupGenerations is the number of rolling backups to keep
	maxBackupGenerations = 3
)

// cleanupTempFiles removes any leftover .tmp files from previous crashes
func (r *Registry) cleanupTempFiles() {
	tmpPath := r.path + ".tmp"
	if _, err := os.Stat(tmpPath); err == nil {
		if err := os.Remove(tmpPath); err != nil {
			log.Printf("Warning: failed to clean up temp file %s: %v", tmpPath, err)
		}
	}
}

// load reads the registry document, recovering from a backup when the main
// file is corrupted. Returns an empty document if the file doesn't exist.
// Callers hold the mutex.
func (r *Registry) load() (*Document, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return &Document{
			Connections: map[string]*Profile{},
			Recent:      []string{},
		}, nil
	}

	doc, err := loadDocument(r.path)
	if err != nil {
		// Main file is corrupted - try to recover from backups
		log.Printf("Warning: registry file corrupted (%v), attempting recovery from backup", err)
		doc, err = r.recoverFromBackups()
		if err != nil {
			return nil, fmt.Errorf("failed to load and no valid backup found: %w", err)
		}
		log.Printf("Successfully recovered from backup")
	}

	normalizeDocument(doc)
	return doc, nil
}

// save persists the document to the registry file.
// Uses atomic write pattern with:
// - Rolling backups (3 generations)
// - fsync for durability
// - Data validation
// Callers hold the mutex.
func (r *Registry) save(doc *Document) error {
	// Validate data before saving
	if err := validateDocument(doc); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpPath := r.path + ".tmp"

	// Step 1: Write to temporary file (0600 = owner read/write only for security)
	if err := os.WriteFile(tmpPath, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Step 2: fsync the temp file to ensure data reaches disk before rename
	if err := syncFile(tmpPath); err != nil {
		// Log but don't fail - atomic rename still provides some safety
		log.Printf("Warning: fsync failed for %s: %v", tmpPath, err)
	}

	// Step 3: Rotate backups before overwriting
	if _, err := os.Stat(r.path); err == nil {
		r.rotateBackups()
	}

	// Step 4: Atomic rename (this is atomic on POSIX systems)
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("failed to finalize save: %w", err)
	}

	return nil
}

// loadDocument reads and parses a registry file
func loadDocument(path string) (*Document, error) {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return &doc, nil
}

// normalizeDocument repairs documents written by hand or by older versions:
// nil maps become empty and an over-long recent list is clipped.
func normalizeDocument(doc *Document) {
	if doc.Connections == nil {
		doc.Connections = map[string]*Profile{}
	}
	if doc.Recent == nil {
		doc.Recent = []string{}
	}
	if len(doc.Recent) > maxRecent {
		doc.Recent = doc.Recent[:maxRecent]
	}
}

// validateDocument checks data integrity before saving
func validateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}

	for host := range doc.Connections {
		if host == "" {
			return fmt.Errorf("connection has empty host")
		}
	}

	if len(doc.Recent) > maxRecent {
		return fmt.Errorf("recent list has %d entries, limit is %d", len(doc.Recent), maxRecent)
	}

	seen := make(map[string]bool)
	for _, host := range doc.Recent {
		if host == "" {
			return fmt.Errorf("recent list has empty host")
		}
		if seen[host] {
			return fmt.Errorf("duplicate recent host: %s", host)
		}
		seen[host] = true
	}

	return nil
}

// syncFile calls fsync on a file to ensure data is written to disk
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// rotateBackups maintains rolling backups: .bak, .bak.1, .bak.2
func (r *Registry) rotateBackups() {
	bakPath := r.path + ".bak"

	// Shift existing backups: .bak.2 <- .bak.1 <- .bak <- current
	for i := maxBackupGenerations - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", bakPath, i-1)
		if i == 1 {
			oldPath = bakPath
		}
		newPath := fmt.Sprintf("%s.%d", bakPath, i)

		// Remove the oldest backup to make room
		if i == maxBackupGenerations-1 {
			os.Remove(newPath)
		}

		// Rename to shift
		if _, err := os.Stat(oldPath); err == nil {
			if err := os.Rename(oldPath, newPath); err != nil {
				log.Printf("Warning: failed to rotate backup %s -> %s: %v", oldPath, newPath, err)
			}
		}
	}

	// Copy current file to .bak
	if err := copyFile(r.path, bakPath); err != nil {
		log.Printf("Warning: failed to create backup file %s: %v", bakPath, err)
	}
}

// copyFile copies a file from src to dst (0600 = owner read/write only for security)
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0600)
}

// recoverFromBackups tries to load data from backup files in order
func (r *Registry) recoverFromBackups() (*Document, error) {
	bakPath := r.path + ".bak"

	// Try backups in order: .bak, .bak.1, .bak.2
	backupPaths := []string{bakPath}
	for i := 1; i < maxBackupGenerations; i++ {
		backupPaths = append(backupPaths, fmt.Sprintf("%s.%d", bakPath, i))
	}

	for _, tryPath := range backupPaths {
		if _, err := os.Stat(tryPath); os.IsNotExist(err) {
			continue
		}

		doc, err := loadDocument(tryPath)
		if err != nil {
			log.Printf("Backup %s also corrupted: %v", tryPath, err)
			continue
		}

		log.Printf("Recovered registry from backup: %s", tryPath)
		return doc, nil
	}

	return nil, fmt.Errorf("all backups corrupted or missing")
}
