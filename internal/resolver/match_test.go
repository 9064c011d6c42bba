package resolver

import (
	"testing"

	"shareplay/internal/listing"
	"shareplay/internal/trackname"
)

func TestBuildImageIndex(t *testing.T) {
	images := []listing.Entry{
		{ID: "img-subfolder-mylene0001", Name: "Mylene.jpg", Kind: listing.KindImage},
		{ID: "img-root-mylene000000002", Name: "mylene.png", Kind: listing.KindImage},
		{ID: "img-daft-punk-0000000003", Name: "Daft  Punk.jpg", Kind: listing.KindImage},
	}

	index := buildImageIndex(images)

	// First occurrence wins: the subfolder image shadows the stray one.
	if got := index["mylene"]; got != "img-subfolder-mylene0001" {
		t.Errorf("index[mylene] = %q, want subfolder entry", got)
	}
	if got := index["daft punk"]; got != "img-daft-punk-0000000003" {
		t.Errorf("index[daft punk] = %q, whitespace should collapse", got)
	}
}

func TestMatchArtist(t *testing.T) {
	index := map[string]string{
		"mylene":    "img-1",
		"daft punk": "img-2",
	}

	tests := []struct {
		name   string
		artist string
		want   string
	}{
		{"exact", "Mylene", "img-1"},
		{"case insensitive", "MYLENE", "img-1"},
		{"whitespace collapsed", "Daft   Punk", "img-2"},
		{"no match", "Kavinsky", ""},
		{"substring is not a match", "Mylene Farmer", ""},
		{"empty artist", "", ""},
		{"unattributed never matches", trackname.UnknownArtist, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchArtist(index, tt.artist); got != tt.want {
				t.Errorf("matchArtist(%q) = %q, want %q", tt.artist, got, tt.want)
			}
		})
	}
}
