package infrastructure

import (
	"path/filepath"
	"strings"
)

// maxLogLines bounds the per-stream ring buffer of recent output lines kept
// for error reporting.
const maxLogLines = 100

// mediaExtensions are the file extensions the extraction tool may print as
// its final output path.
var mediaExtensions = []string{
	".mp4", ".mkv", ".webm", ".mov", ".avi",
	".m4a", ".mp3", ".flac", ".wav", ".opus",
}

// ringBuffer is a bounded ordered log of recent lines with oldest-eviction.
type ringBuffer struct {
	lines []string
	max   int
}

func newRingBuffer(max int) *ringBuffer {
	return &ringBuffer{max: max}
}

func (b *ringBuffer) Append(line string) {
	if len(b.lines) == b.max {
		copy(b.lines, b.lines[1:])
		b.lines[len(b.lines)-1] = line
		return
	}
	b.lines = append(b.lines, line)
}

func (b *ringBuffer) Len() int {
	return len(b.lines)
}

func (b *ringBuffer) String() string {
	return strings.Join(b.lines, "\n")
}

// streamParser consumes one of the child's output streams incrementally,
// splitting it on newline boundaries and classifying each complete line.
// Partial trailing data is carried over between writes and only classified
// once terminated, or when Flush is called at process exit.
//
// Each supervised run owns its own instances (one per stream); there is no
// shared state between concurrent runs. streamParser implements io.Writer so
// it can be attached directly to exec.Cmd, which copies stream data to it as
// it arrives.
type streamParser struct {
	ring    *ringBuffer
	capture bool // capture qualifying absolute paths as the candidate result

	partial strings.Builder
	result  string
}

// newStreamParser returns a parser for one stream. Only the stdout parser
// captures result paths; stderr is consumed for logging alone.
func newStreamParser(capture bool) *streamParser {
	return &streamParser{
		ring:    newRingBuffer(maxLogLines),
		capture: capture,
	}
}

func (p *streamParser) Write(data []byte) (int, error) {
	rest := string(data)
	for {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			p.partial.WriteString(rest)
			return len(data), nil
		}
		p.partial.WriteString(rest[:idx])
		p.classify(p.partial.String())
		p.partial.Reset()
		rest = rest[idx+1:]
	}
}

// Flush classifies any unterminated trailing data. Called once, after the
// child process has exited.
func (p *streamParser) Flush() {
	if p.partial.Len() == 0 {
		return
	}
	p.classify(p.partial.String())
	p.partial.Reset()
}

// Result returns the last captured output path, or "" if none qualified.
func (p *streamParser) Result() string {
	return p.result
}

// Logs returns the retained recent lines, joined.
func (p *streamParser) Logs() string {
	return p.ring.String()
}

// classify records the line and, on a capturing parser, promotes qualifying
// absolute media paths to the candidate result. Last match wins: the tool
// prints the final moved path after any intermediate ones.
func (p *streamParser) classify(line string) {
	trimmed := strings.TrimRight(line, "\r")
	if strings.TrimSpace(trimmed) == "" {
		return
	}
	p.ring.Append(trimmed)

	if p.capture && isOutputPath(strings.TrimSpace(trimmed)) {
		p.result = strings.TrimSpace(trimmed)
	}
}

// isOutputPath reports whether a line is an absolute filesystem path ending
// in a supported media extension.
func isOutputPath(line string) bool {
	if !filepath.IsAbs(line) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(line))
	for _, e := range mediaExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
