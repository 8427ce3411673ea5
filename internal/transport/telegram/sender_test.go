package telegram

import (
	"strings"
	"testing"
)

func TestSplitHTML(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		maxLen     int
		wantChunks int
	}{
		{
			name:       "short_text_single_chunk",
			text:       "hello world",
			maxLen:     100,
			wantChunks: 1,
		},
		{
			name:       "exact_limit_single_chunk",
			text:       strings.Repeat("a", 100),
			maxLen:     100,
			wantChunks: 1,
		},
		{
			name:       "splits_past_limit",
			text:       strings.Repeat("a", 250),
			maxLen:     100,
			wantChunks: 3,
		},
		{
			name:       "trailing_newline_leaves_no_empty_chunk",
			text:       strings.Repeat("a", 100) + "\n",
			maxLen:     100,
			wantChunks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitHTML(tt.text, tt.maxLen)

			if len(chunks) != tt.wantChunks {
				t.Fatalf("chunks = %d, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if len(c) > tt.maxLen {
					t.Errorf("chunk %d length = %d, exceeds %d", i, len(c), tt.maxLen)
				}
			}
			if len(tt.text) <= tt.maxLen && chunks[0] != tt.text {
				t.Error("text within the limit must come back unchanged")
			}
		})
	}
}

func TestSplitHTML_PrefersNewlineBreaks(t *testing.T) {
	line := strings.Repeat("b", 60)
	text := line + "\n" + line + "\n" + line

	chunks := splitHTML(text, 100)

	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want at least 2", len(chunks))
	}
	// The first cut should land on the newline, keeping lines intact.
	if chunks[0] != line {
		t.Errorf("first chunk = %q, want a full line", chunks[0])
	}
}
