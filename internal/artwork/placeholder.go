package artwork

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/fogleman/gg"

	"shareplay/internal/metrics"
)

// PlaceholderSize is the edge length of generated placeholder tiles.
const PlaceholderSize = 400

// placeholderPalette pairs a background with a disc color. The artist
// name hashes to a stable pick so the same artist always gets the same
// tile.
var placeholderPalette = [][2]string{
	{"#2d3142", "#4f5d75"},
	{"#3a2e39", "#6d597a"},
	{"#1f3a33", "#3e6b5a"},
	{"#33272a", "#7a5c61"},
	{"#22303c", "#486581"},
	{"#3b2f1e", "#8a6d3b"},
}

// Placeholder renders a vinyl-record tile for an artist with no image.
// Rendering is deterministic per name.
func Placeholder(name string) ([]byte, error) {
	start := time.Now()

	h := fnv.New32a()
	h.Write([]byte(name))
	colors := placeholderPalette[h.Sum32()%uint32(len(placeholderPalette))]

	size := PlaceholderSize
	dc := gg.NewContext(size, size)
	dc.SetHexColor(colors[0])
	dc.Clear()

	cx := float64(size) / 2
	cy := float64(size) / 2

	// Disc, grooves, label, spindle.
	dc.SetHexColor(colors[1])
	dc.DrawCircle(cx, cy, float64(size)*0.38)
	dc.Fill()

	dc.SetRGBA(1, 1, 1, 0.07)
	dc.SetLineWidth(2)
	for _, r := range []float64{0.34, 0.30, 0.26, 0.22} {
		dc.DrawCircle(cx, cy, float64(size)*r)
		dc.Stroke()
	}

	dc.SetHexColor(colors[0])
	dc.DrawCircle(cx, cy, float64(size)*0.13)
	dc.Fill()

	dc.SetRGBA(1, 1, 1, 0.25)
	dc.DrawCircle(cx, cy, float64(size)*0.02)
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		metrics.ArtworkGenerationsTotal.WithLabelValues("placeholder", "error").Inc()
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}

	metrics.ArtworkGenerationsTotal.WithLabelValues("placeholder", "success").Inc()
	metrics.ArtworkGenerationDuration.WithLabelValues("placeholder").Observe(time.Since(start).Seconds())
	return buf.Bytes(), nil
}
