/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

# Purpose

This package wraps standard filesystem operations (os.Stat, os.Open, os.ReadDir) with
retry logic specifically designed to handle transient NFS failures, particularly ESTALE
(stale file handle) errors that occur when NFS-mounted files are accessed during network
issues or server-side changes.

# Key Features

  - Automatic retry with exponential backoff for NFS ESTALE errors (errno 116)
  - Configurable retry attempts (default: 3) and backoff timings
  - Transparent fallback to standard os operations for non-NFS errors
  - Volume-labeled retry metrics via a pluggable Observer

# Usage

Basic usage with default retry configuration:

	import "shareplay/internal/filesystem"

	// Stat a file with automatic NFS retry
	info, err := filesystem.StatWithRetry("/media/track.mp3", filesystem.DefaultRetryConfig())
	if err != nil {
	    log.Fatal(err)
	}

	// Open a file with automatic NFS retry
	file, err := filesystem.OpenWithRetry("/media/track.mp3", filesystem.DefaultRetryConfig())
	if err != nil {
	    log.Fatal(err)
	}
	defer file.Close()

Custom retry configuration:

	config := filesystem.RetryConfig{
	    MaxRetries:     5,
	    InitialBackoff: 100 * time.Millisecond,
	    MaxBackoff:     1 * time.Second,
	}
	info, err := filesystem.StatWithRetry(path, config)

# Retry Behavior

The retry logic implements exponential backoff with the following defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only NFS stale file handle errors (ESTALE) trigger retries. All other errors
fail immediately without retry attempts.

# Metrics

Retry attempts, successes, failures, and durations are reported through the
Observer interface, labeled by operation and volume. The metrics package
provides the Prometheus-backed implementation; call SetObserver and
SetDefaultVolumeResolver once at startup. With no observer configured,
recording is skipped.

# Integration

This package is used where shareplay touches local disks that may be
network-mounted:

  - internal/library: scanning the local media directory
  - internal/sourcecache: materializing playable copies
  - internal/artwork: the on-disk artwork cache
*/
package filesystem
