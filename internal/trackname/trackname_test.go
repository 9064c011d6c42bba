package trackname

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantTitle  string
		wantArtist string
	}{
		{
			name:       "parenthetical artist",
			input:      "Moonlight (Debussy).mp3",
			wantTitle:  "Moonlight",
			wantArtist: "Debussy",
		},
		{
			name:       "dash separator",
			input:      "Clair de Lune - Debussy.flac",
			wantTitle:  "Clair de Lune",
			wantArtist: "Debussy",
		},
		{
			name:       "by separator",
			input:      "Respire by Mylene.wav",
			wantTitle:  "Respire",
			wantArtist: "Mylene",
		},
		{
			name:       "no pattern",
			input:      "untitled.mp3",
			wantTitle:  "untitled",
			wantArtist: UnknownArtist,
		},
		{
			name:       "parenthetical wins over dash",
			input:      "Night - Song (Artist X).mp3",
			wantTitle:  "Night - Song",
			wantArtist: "Artist X",
		},
		{
			name:       "dash wins over by",
			input:      "Stand by Me - Ben E King.mp3",
			wantTitle:  "Stand by Me",
			wantArtist: "Ben E King",
		},
		{
			name:       "uppercase BY separator",
			input:      "Respire BY Mylene.ogg",
			wantTitle:  "Respire",
			wantArtist: "Mylene",
		},
		{
			name:       "first dash splits",
			input:      "One - Two - Three.mp3",
			wantTitle:  "One",
			wantArtist: "Two - Three",
		},
		{
			name:       "hyphen without spaces is not a separator",
			input:      "best-of.mp3",
			wantTitle:  "best-of",
			wantArtist: UnknownArtist,
		},
		{
			name:       "by inside a word is not a separator",
			input:      "lullaby.mp3",
			wantTitle:  "lullaby",
			wantArtist: UnknownArtist,
		},
		{
			name:       "flac extension stripped",
			input:      "song.flac",
			wantTitle:  "song",
			wantArtist: UnknownArtist,
		},
		{
			name:       "no extension",
			input:      "Aria (Bach)",
			wantTitle:  "Aria",
			wantArtist: "Bach",
		},
		{
			name:       "empty parenthetical falls through",
			input:      "Song ().mp3",
			wantTitle:  "Song ()",
			wantArtist: UnknownArtist,
		},
		{
			name:       "whitespace trimmed",
			input:      "  Nocturne - Chopin .mp3",
			wantTitle:  "Nocturne",
			wantArtist: "Chopin",
		},
		{
			name:       "empty name",
			input:      "",
			wantTitle:  "",
			wantArtist: UnknownArtist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Title != tt.wantTitle {
				t.Errorf("Parse(%q).Title = %q, want %q", tt.input, got.Title, tt.wantTitle)
			}
			if got.Artist != tt.wantArtist {
				t.Errorf("Parse(%q).Artist = %q, want %q", tt.input, got.Artist, tt.wantArtist)
			}
		})
	}
}

func TestParseStable(t *testing.T) {
	// Matching and display both parse the same name; the result must not
	// depend on call order or repetition.
	input := "Moonlight (Debussy).mp3"
	first := Parse(input)
	for i := 0; i < 5; i++ {
		if got := Parse(input); got != first {
			t.Fatalf("Parse(%q) unstable: got %+v, want %+v", input, got, first)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	names := []string{
		"Moonlight (Debussy).mp3",
		"Clair de Lune - Debussy.flac",
		"Respire by Mylene.wav",
		"untitled.mp3",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(names[i%len(names)])
	}
}
