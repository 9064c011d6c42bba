/*
Package workers provides utilities for determining worker pool sizes in
containerized environments.

# Overview

When running in containers, the number of available CPUs may be limited by
cgroup constraints. Go 1.19+ sets GOMAXPROCS from container CPU limits, but
runtime.NumCPU() still reports the host's CPU count. This package derives
worker counts from GOMAXPROCS so pools respect container limits.

# Usage

Task-specific helpers cover the common cases:

	import "shareplay/internal/workers"

	// CPU-intensive tasks (artwork decoding and re-encoding)
	numWorkers := workers.ForCPU(8)

	// I/O-bound tasks (remote fetches, duration probes)
	numWorkers := workers.ForIO(16)

	// Mixed workloads (fetch remote image, decode, write to cache)
	numWorkers := workers.ForMixed(12)

For fine-grained control use Count directly:

	numWorkers := workers.Count(3.0, 24) // 3 per CPU, max 24
	numWorkers := workers.Count(2.0, 0)  // no maximum

# Environment Variable Override

All functions respect the ARTWORK_WORKERS environment variable, allowing
operators to override the automatic calculation:

	env:
	- name: ARTWORK_WORKERS
	  value: "4"

Invalid or non-positive values are ignored and the calculated count is used.

# Thread Safety

All functions are safe for concurrent use. They read runtime.GOMAXPROCS and
environment variables only.
*/
package workers
