package infrastructure

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_Eviction(t *testing.T) {
	b := newRingBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, "line-3\nline-4\nline-5", b.String())
}

func TestRingBuffer_CapAtMaxLogLines(t *testing.T) {
	b := newRingBuffer(maxLogLines)
	for i := 0; i < maxLogLines+50; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}
	assert.Equal(t, maxLogLines, b.Len())
}

func TestStreamParser_CapturesLastOutputPath(t *testing.T) {
	p := newStreamParser(true)

	p.Write([]byte("[download] fetching formats\n"))
	p.Write([]byte("/data/video/first.mp4\n"))
	p.Write([]byte("[Merger] merging formats\n"))
	p.Write([]byte("/data/video/final.mp4\n"))

	assert.Equal(t, "/data/video/final.mp4", p.Result())
}

func TestStreamParser_PartialLineCarryOver(t *testing.T) {
	p := newStreamParser(true)

	// A path split across three writes must only be classified once the
	// line terminates.
	p.Write([]byte("/data/vid"))
	assert.Empty(t, p.Result())
	p.Write([]byte("eo/clip"))
	assert.Empty(t, p.Result())
	p.Write([]byte(".mp4\n"))

	assert.Equal(t, "/data/video/clip.mp4", p.Result())
}

func TestStreamParser_FlushClassifiesTrailingData(t *testing.T) {
	p := newStreamParser(true)

	p.Write([]byte("/data/video/unterminated.mp4"))
	assert.Empty(t, p.Result())

	p.Flush()
	assert.Equal(t, "/data/video/unterminated.mp4", p.Result())
}

func TestStreamParser_NoCaptureOnStderrParser(t *testing.T) {
	p := newStreamParser(false)

	p.Write([]byte("/data/video/clip.mp4\n"))

	assert.Empty(t, p.Result())
	assert.Equal(t, "/data/video/clip.mp4", p.Logs())
}

func TestStreamParser_IgnoresInterleavedProgressOutput(t *testing.T) {
	p := newStreamParser(true)

	p.Write([]byte("[download]  42.0% of 10MiB at 2MiB/s\r\n"))
	p.Write([]byte("WARNING: something odd\n"))
	p.Write([]byte("relative/path/clip.mp4\n"))
	p.Write([]byte("/data/video/clip.txt\n"))

	assert.Empty(t, p.Result())
	assert.Equal(t, 4, p.ring.Len())
}

func TestIsOutputPath(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"/data/video/clip.mp4", true},
		{"/data/audio/track.flac", true},
		{"/data/audio/track.MP3", true},
		{"relative/clip.mp4", false},
		{"/data/video/notes.txt", false},
		{"/data/video/clip", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isOutputPath(tt.line), tt.line)
	}
}
