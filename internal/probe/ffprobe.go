package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DurationProbe measures a media source's duration in seconds with
// ffprobe. Source may be a local path or an HTTP URL; ffprobe handles
// both transparently.
func DurationProbe(ctx context.Context, source string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return 0, fmt.Errorf("ffprobe failed: %w (%s)", err, detail)
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(stdout.String())
}

// parseProbeOutput converts ffprobe's bare duration output. Streams
// without a container duration print "N/A".
func parseProbeOutput(out string) (float64, error) {
	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, "N/A") {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}

	seconds, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", out, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe reported non-positive duration %v", seconds)
	}
	return seconds, nil
}
