package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// writeStubTool writes an executable shell script that stands in for the
// extraction tool.
func writeStubTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub-extractor")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func newTestExtractor(t *testing.T, binary string) *Extractor {
	t.Helper()
	cfg := &domain.DownloadConfig{
		BaseDir:         t.TempDir(),
		ExtractorBinary: binary,
	}
	return NewExtractor(cfg, zap.NewNop())
}

func TestRun_Success(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "My Clip.mp4")
	require.NoError(t, os.WriteFile(outFile, []byte("media"), 0644))

	tool := writeStubTool(t, fmt.Sprintf(`echo "[download] 100%%"
echo "%s"`, outFile))
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.True(t, outcome.Succeeded())
	assert.Equal(t, outFile, outcome.FilePath)
	assert.Equal(t, "My Clip.mp4", outcome.FileName)
	assert.Equal(t, "My Clip", outcome.Title)
	assert.Equal(t, "https://example.com/v", outcome.SourceURL)
}

func TestRun_LastPathWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "intermediate.mp4")
	last := filepath.Join(dir, "final.mp4")
	require.NoError(t, os.WriteFile(first, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(last, []byte("b"), 0644))

	tool := writeStubTool(t, fmt.Sprintf(`echo "%s"
echo "[Merger] merging"
echo "%s"`, first, last))
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.True(t, outcome.Succeeded())
	assert.Equal(t, last, outcome.FilePath)
}

func TestRun_NonZeroExit(t *testing.T) {
	tool := writeStubTool(t, `echo "[download] starting"
echo "ERROR: network unreachable" >&2
exit 1`)
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.KindToolFailure, outcome.Err.Kind)
	assert.Contains(t, outcome.Err.Details, "network unreachable")
	assert.Contains(t, outcome.Err.Details, "[download] starting")
}

func TestRun_ExpiredCookiesDiagnostic(t *testing.T) {
	tool := writeStubTool(t, `echo "ERROR: The provided Cookies Are No Longer Valid" >&2
exit 1`)
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.KindAuthExpired, outcome.Err.Kind)
}

func TestRun_AgeRestrictedDiagnostic(t *testing.T) {
	tool := writeStubTool(t, `echo "ERROR: Sign in to confirm your age" >&2
exit 1`)
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.KindAgeRestricted, outcome.Err.Kind)
}

func TestRun_CleanExitWithoutPath(t *testing.T) {
	tool := writeStubTool(t, `echo "[download] done"`)
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.KindOutputMissing, outcome.Err.Kind)
}

func TestRun_PrintedPathDoesNotExist(t *testing.T) {
	tool := writeStubTool(t, `echo "/nonexistent/clip.mp4"`)
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.KindOutputMissing, outcome.Err.Kind)
}

func TestRun_UnterminatedFinalLine(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(outFile, []byte("media"), 0644))

	// printf leaves the final line unterminated; the exit-time flush must
	// still classify it.
	tool := writeStubTool(t, fmt.Sprintf(`printf "%s"`, outFile))
	e := newTestExtractor(t, tool)

	outcome := e.Run(context.Background(), &domain.DownloadRequest{URL: "https://example.com/v"})

	require.True(t, outcome.Succeeded())
	assert.Equal(t, outFile, outcome.FilePath)
}

func TestRun_CookieFileNeverPersists(t *testing.T) {
	okFile := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(okFile, []byte("media"), 0644))

	tests := []struct {
		name string
		body string
	}{
		{"success exit", fmt.Sprintf(`echo "%s"`, okFile)},
		{"failure exit", `exit 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := writeStubTool(t, tt.body)
			e := newTestExtractor(t, tool)

			e.Run(context.Background(), &domain.DownloadRequest{
				URL:        "https://example.com/v",
				CookieText: "# Netscape HTTP Cookie File\nexample.com\tTRUE\t/\tFALSE\t0\tsid\tabc",
			})

			entries, err := os.ReadDir(e.config.CookiesDir())
			require.NoError(t, err)
			assert.Empty(t, entries, "cookie temp file must not survive the run")
		})
	}
}

func TestRun_CookieFilePassedToTool(t *testing.T) {
	argsDump := filepath.Join(t.TempDir(), "args.txt")
	tool := writeStubTool(t, fmt.Sprintf(`echo "$@" > "%s"
exit 1`, argsDump))
	e := newTestExtractor(t, tool)

	e.Run(context.Background(), &domain.DownloadRequest{
		URL:        "https://example.com/v",
		CookieText: "cookie data",
	})

	dumped, err := os.ReadFile(argsDump)
	require.NoError(t, err)
	assert.Contains(t, string(dumped), "--cookies")
}

func TestBuildArgs_Video(t *testing.T) {
	e := newTestExtractor(t, "yt-dlp")
	req := &domain.DownloadRequest{URL: "https://example.com/v"}

	args := e.buildArgs(req, "/dest", "")

	assert.Contains(t, args, "--no-playlist")
	assert.Contains(t, args, "--newline")
	assert.Contains(t, args, "after_move:filepath")
	assert.Contains(t, args, videoFormatSelector)
	assert.Contains(t, args, "--merge-output-format")
	assert.Contains(t, args, filepath.Join("/dest", "%(title)s.%(ext)s"))
	assert.Equal(t, req.URL, args[len(args)-1])
	assert.NotContains(t, args, "--cookies")
	assert.NotContains(t, args, "--download-sections")
}

func TestBuildArgs_AudioLossy(t *testing.T) {
	e := newTestExtractor(t, "yt-dlp")
	req := &domain.DownloadRequest{URL: "https://example.com/v", AudioOnly: true}

	args := strings.Join(e.buildArgs(req, "/dest", ""), " ")

	assert.Contains(t, args, "-x")
	assert.Contains(t, args, "--audio-format mp3")
	assert.Contains(t, args, "--audio-quality 0")
	assert.NotContains(t, args, "flac")
}

func TestBuildArgs_SoundCloudForcesLosslessAudio(t *testing.T) {
	e := newTestExtractor(t, "yt-dlp")
	// audio_only false: the platform override must still select audio
	req := &domain.DownloadRequest{URL: "https://soundcloud.com/x/y", AudioOnly: false}

	args := strings.Join(e.buildArgs(req, "/dest", ""), " ")

	assert.Contains(t, args, "-x")
	assert.Contains(t, args, "--audio-format flac")
	assert.NotContains(t, args, "mp3")
}

func TestBuildArgs_TimeRange(t *testing.T) {
	e := newTestExtractor(t, "yt-dlp")
	req := &domain.DownloadRequest{
		URL:       "https://example.com/v",
		StartTime: intPtr(10),
		EndTime:   intPtr(20),
	}

	args := e.buildArgs(req, "/dest", "")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "--download-sections *00:00:10-00:00:20")
	assert.Contains(t, joined, filepath.Join("/dest", "%(title)s_10s-20s.%(ext)s"))
}

func TestBuildArgs_CookieFlag(t *testing.T) {
	e := newTestExtractor(t, "yt-dlp")
	req := &domain.DownloadRequest{URL: "https://example.com/v"}

	joined := strings.Join(e.buildArgs(req, "/dest", "/tmp/cookies-abc.txt"), " ")

	assert.Contains(t, joined, "--cookies /tmp/cookies-abc.txt")
}

func TestRangeSuffix(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{10, "10s"},
		{60, "1m"},
		{90, "1m30s"},
		{3600, "1h"},
		{3700, "1h1m40s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rangeSuffix(tt.seconds))
	}
}

func TestClock(t *testing.T) {
	assert.Equal(t, "00:00:10", clock(10))
	assert.Equal(t, "00:01:30", clock(90))
	assert.Equal(t, "01:01:40", clock(3700))
}

func TestEnsureDestDir(t *testing.T) {
	e := newTestExtractor(t, "yt-dlp")

	dir, err := e.ensureDestDir(&domain.DownloadRequest{URL: "https://example.com/v", SubFolder: "music"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.config.VideoDir(), "music"), dir)
	assert.DirExists(t, dir)

	dir, err = e.ensureDestDir(&domain.DownloadRequest{URL: "https://example.com/v", AudioOnly: true})
	require.NoError(t, err)
	assert.Equal(t, e.config.AudioDir(), dir)
}

func intPtr(v int) *int { return &v }
