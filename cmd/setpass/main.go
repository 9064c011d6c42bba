package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"shareplay/internal/database"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default data directory, matching the server's DATA_DIR default
	defaultDataDir = "/data"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dbPath := filepath.Join(dataDir, "shareplay.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", dataDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	switch command {
	case "set":
		if !setPassword(ctx, db) {
			os.Exit(1)
		}
	case "clear":
		if !clearPassword(ctx, db) {
			os.Exit(1)
		}
	case "status":
		showStatus(ctx, db)
	default:
		// Sanitize command input using allowlist before echoing it back
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing anything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Shareplay Access Password Management")
	fmt.Println("")
	fmt.Println("Usage: setpass <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  set     - Set or replace the access password")
	fmt.Println("  clear   - Remove the access password (disables the login gate)")
	fmt.Println("  status  - Check whether an access password is configured")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATA_DIR - Path to the server's data directory (default: %s)\n", defaultDataDir)
}

func setPassword(ctx context.Context, db *database.Database) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fmt.Print("New Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	if !bytes.Equal(password, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
		return false
	}

	if len(password) < database.MinPasswordLength {
		fmt.Fprintf(os.Stderr, "Error: Password must be at least %d characters\n", database.MinPasswordLength)
		return false
	}

	if err := db.SetAccessPassword(ctx, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to set password: %v\n", err)
		return false
	}

	fmt.Println("Access password set.")
	fmt.Println("Running servers issue sessions in memory; restart one to require the new password everywhere.")
	return true
}

func clearPassword(ctx context.Context, db *database.Database) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set, err := db.AccessPasswordSet(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to check password status: %v\n", err)
		return false
	}
	if !set {
		fmt.Println("No access password configured; nothing to clear.")
		return true
	}

	if err := db.ClearAccessPassword(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to clear password: %v\n", err)
		return false
	}

	fmt.Println("Access password cleared. The API is now open.")
	return true
}

func showStatus(ctx context.Context, db *database.Database) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set, err := db.AccessPasswordSet(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to check password status: %v\n", err)
		return
	}
	if set {
		fmt.Println("Status: Access password is configured")
	} else {
		fmt.Println("Status: No access password configured (API is open)")
	}
}
