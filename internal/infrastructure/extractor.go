package infrastructure

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// Diagnostic substrings (matched case-insensitively in the combined captured
// output) that map a tool failure to a specific user-actionable error.
const (
	diagCookiesInvalid = "cookies are no longer valid"
	diagAgeRestricted  = "sign in to confirm your age"
)

// videoFormatSelector caps resolution at 1080p with a preferred codec combo
// and degrades gracefully: preferred codecs at the cap, then any codecs at
// the cap, then best available.
const videoFormatSelector = "bestvideo[height<=1080][vcodec^=avc1]+bestaudio[acodec^=mp4a]/" +
	"bestvideo[height<=1080]+bestaudio/best"

// Extractor supervises one external extraction process per download request:
// argument construction, spawn, incremental output parsing and completion
// classification.
type Extractor struct {
	config *domain.DownloadConfig
	logger *zap.Logger
}

// NewExtractor creates a new extraction supervisor
func NewExtractor(config *domain.DownloadConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		config: config,
		logger: logger,
	}
}

// Run executes one extraction process to completion and classifies the
// result. Expected failure modes (tool exit failure, missing output,
// rejected cookies) are folded into the returned outcome; Run itself never
// fails for them. The child is killed if ctx is cancelled.
func (e *Extractor) Run(ctx context.Context, req *domain.DownloadRequest) *domain.DownloadOutcome {
	destDir, err := e.ensureDestDir(req)
	if err != nil {
		return domain.NewFailureOutcome(req.URL, domain.KindToolFailure,
			"failed to prepare destination directory", err.Error())
	}

	cookiePath, err := e.writeCookieFile(req)
	if err != nil {
		return domain.NewFailureOutcome(req.URL, domain.KindToolFailure,
			"failed to write cookie file", err.Error())
	}
	if cookiePath != "" {
		// The cookie file must never persist past this call, on any path.
		defer os.Remove(cookiePath)
	}

	args := e.buildArgs(req, destDir, cookiePath)

	e.logger.Info("Starting extraction",
		zap.String("url", req.URL),
		zap.String("cmd", ShellEscapeCommand(e.config.ExtractorBinary, args...)))

	cmd := exec.CommandContext(ctx, e.config.ExtractorBinary, args...)
	cmd.Env = e.childEnv()

	// One parser per stream, owned by this run alone. Only stdout is
	// eligible for result-path capture.
	stdoutParser := newStreamParser(true)
	stderrParser := newStreamParser(false)
	cmd.Stdout = stdoutParser
	cmd.Stderr = stderrParser

	runErr := cmd.Run()

	// Classify any unterminated trailing output before inspecting results.
	stdoutParser.Flush()
	stderrParser.Flush()

	if runErr != nil {
		return e.classifyFailure(req, runErr, stdoutParser, stderrParser)
	}

	resultPath := stdoutParser.Result()
	if resultPath == "" || !fileExists(resultPath) {
		// Tool-contract violation: clean exit without a locatable file.
		// Logged loudly because it points at a supervisor or tool bug.
		e.logger.Error("Extraction exited cleanly but output was not located",
			zap.String("url", req.URL),
			zap.String("candidate", resultPath))
		return domain.NewFailureOutcome(req.URL, domain.KindOutputMissing,
			"extraction finished but the output file could not be located",
			combinedLogs(stdoutParser, stderrParser))
	}

	e.logger.Info("Extraction completed",
		zap.String("url", req.URL),
		zap.String("file", resultPath))

	return domain.NewSuccessOutcome(req.URL, resultPath)
}

// ensureDestDir resolves and lazily creates the destination directory for
// the request. Creation is idempotent, so races between concurrent requests
// sharing a directory are harmless.
func (e *Extractor) ensureDestDir(req *domain.DownloadRequest) (string, error) {
	dir := e.config.VideoDir()
	if req.AudioOnly || req.IsSoundCloud() {
		dir = e.config.AudioDir()
	}
	if req.SubFolder != "" {
		dir = filepath.Join(dir, req.SubFolder)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}
	return dir, nil
}

// writeCookieFile writes the request's raw cookie text to a uniquely-named
// temp file and returns its path, or "" when no cookies were supplied. The
// random name avoids collisions between concurrent requests.
func (e *Extractor) writeCookieFile(req *domain.DownloadRequest) (string, error) {
	if req.CookieText == "" {
		return "", nil
	}
	dir := e.config.CookiesDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "cookies-"+uuid.New().String()+".txt")
	if err := os.WriteFile(path, []byte(req.CookieText), 0600); err != nil {
		return "", err
	}
	return path, nil
}

// buildArgs constructs the extraction tool's argument list for one request.
func (e *Extractor) buildArgs(req *domain.DownloadRequest, destDir, cookiePath string) []string {
	args := []string{
		"--no-playlist",
		"--newline",
		// Print the final moved file path to stdout after all processing.
		"--print", "after_move:filepath",
	}

	suffix := ""
	if req.HasRange() {
		suffix = fmt.Sprintf("_%s-%s", rangeSuffix(*req.StartTime), rangeSuffix(*req.EndTime))
	}
	args = append(args, "-o", filepath.Join(destDir, "%(title)s"+suffix+".%(ext)s"))

	if req.AudioOnly || req.IsSoundCloud() {
		args = append(args, "-f", "bestaudio/best", "-x")
		if req.IsSoundCloud() {
			// SoundCloud serves originals; keep them lossless.
			args = append(args, "--audio-format", "flac")
		} else {
			args = append(args, "--audio-format", "mp3", "--audio-quality", "0")
		}
	} else {
		args = append(args, "-f", videoFormatSelector, "--merge-output-format", "mp4")
	}

	if req.HasRange() {
		args = append(args, "--download-sections",
			fmt.Sprintf("*%s-%s", clock(*req.StartTime), clock(*req.EndTime)))
	}

	if cookiePath != "" {
		args = append(args, "--cookies", cookiePath)
	}

	return append(args, req.URL)
}

// childEnv returns the child's environment, with the media tool directory
// prepended to PATH so the extractor can locate it.
func (e *Extractor) childEnv() []string {
	env := os.Environ()
	if e.config.MediaToolDir == "" {
		return env
	}
	path := e.config.MediaToolDir + string(os.PathListSeparator) + os.Getenv("PATH")
	return append(env, "PATH="+path)
}

// classifyFailure maps a failed run to a specific error kind by inspecting
// the combined captured output for known diagnostics.
func (e *Extractor) classifyFailure(req *domain.DownloadRequest, runErr error, stdout, stderr *streamParser) *domain.DownloadOutcome {
	details := combinedLogs(stdout, stderr)
	lowered := strings.ToLower(details)

	var kind domain.ErrorKind
	var message string
	switch {
	case strings.Contains(lowered, diagCookiesInvalid):
		kind = domain.KindAuthExpired
		message = "authentication cookies have expired or been rotated; supply fresh cookies"
	case strings.Contains(lowered, diagAgeRestricted):
		kind = domain.KindAgeRestricted
		message = "content is age-restricted and requires authentication cookies"
	default:
		kind = domain.KindToolFailure
		message = fmt.Sprintf("extraction tool failed: %v", runErr)
	}

	e.logger.Warn("Extraction failed",
		zap.String("url", req.URL),
		zap.String("kind", string(kind)),
		zap.Error(runErr))

	return domain.NewFailureOutcome(req.URL, kind, message, details)
}

// combinedLogs joins the retained stdout and stderr lines for error detail.
func combinedLogs(stdout, stderr *streamParser) string {
	out := stdout.Logs()
	errOut := stderr.Logs()
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// rangeSuffix renders a second offset as a compact human-readable duration
// (90 -> "1m30s", 10 -> "10s") for the filename range suffix.
func rangeSuffix(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	if s > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", s)
	}
	return b.String()
}

// clock renders a second offset as zero-padded HH:MM:SS for the
// download-sections directive.
func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
