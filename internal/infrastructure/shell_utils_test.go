package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple path",
			input:    "/data/video/clip.mp4",
			expected: "/data/video/clip.mp4",
		},
		{
			name:     "path with spaces",
			input:    "/data/video/my clip.mp4",
			expected: "'/data/video/my clip.mp4'",
		},
		{
			name:     "path with single quote",
			input:    "/data/it's.mp4",
			expected: "'/data/it'\"'\"'s.mp4'",
		},
		{
			name:     "output template",
			input:    "%(title)s.%(ext)s",
			expected: "'%(title)s.%(ext)s'",
		},
		{
			name:     "range directive",
			input:    "*00:00:10-00:00:20",
			expected: "'*00:00:10-00:00:20'",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	cmd := ShellEscapeCommand("yt-dlp", "--no-playlist", "-o", "/data/%(title)s.%(ext)s", "https://example.com/v")
	assert.Equal(t, "yt-dlp --no-playlist -o '/data/%(title)s.%(ext)s' https://example.com/v", cmd)
}
