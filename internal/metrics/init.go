package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Database size by file ---
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	// --- DB query operations ---
	for _, op := range []string{"initialize_schema", "load_durations", "merge_durations",
		"count_durations", "get_access", "set_access", "begin_transaction", "commit", "rollback"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	// --- Share client operations ---
	for _, op := range []string{"listing", "image", "stream"} {
		ShareRequestsTotal.WithLabelValues(op, "success")
		ShareRequestsTotal.WithLabelValues(op, "error")
		ShareRequestDuration.WithLabelValues(op)
		ShareRequestRetries.WithLabelValues(op)
	}

	// --- Listing entry kinds ---
	for _, kind := range []string{"audio", "image", "folder", "other"} {
		ListingEntriesParsed.WithLabelValues(kind)
	}

	// --- Resolver outcomes ---
	for _, status := range []string{"success", "error"} {
		ResolvesTotal.WithLabelValues(status)
	}

	// --- Probe outcomes ---
	for _, status := range []string{"success", "timeout", "error", "skipped"} {
		ProbesTotal.WithLabelValues(status)
	}

	// --- Source cache outcomes ---
	for _, status := range []string{"success", "error"} {
		SourceCacheMaterializations.WithLabelValues(status)
	}

	// --- Artwork generation (per decoder × status) ---
	for _, decoder := range []string{"vips", "imaging", "placeholder"} {
		ArtworkGenerationDuration.WithLabelValues(decoder)
		ArtworkGenerationsTotal.WithLabelValues(decoder, "success")
		ArtworkGenerationsTotal.WithLabelValues(decoder, "error")
	}

	// --- Playlist creation ---
	for _, source := range []string{"share", "local"} {
		PlaylistTracks.WithLabelValues(source)
		PlaylistsCreatedTotal.WithLabelValues(source, "success")
		PlaylistsCreatedTotal.WithLabelValues(source, "error")
	}

	// --- Player events ---
	for _, event := range []string{"next", "prev", "select", "shuffle", "repeat", "ended", "volume"} {
		PlayerEventsTotal.WithLabelValues(event)
	}

	// --- Auth outcomes ---
	for _, status := range []string{"success", "failure"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	volumes := []string{"media", "data", "unknown"}
	retryOps := []string{"stat", "open", "readdir"}

	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
