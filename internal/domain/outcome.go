package domain

import (
	"path/filepath"
	"strings"
)

// ErrorKind classifies a failed extraction run into a user-actionable category.
type ErrorKind string

const (
	// KindAuthExpired means the supplied authentication cookies were rejected
	// by the source platform (expired or rotated session).
	KindAuthExpired ErrorKind = "auth_expired"

	// KindAgeRestricted means the content requires an authenticated session
	// to confirm age.
	KindAgeRestricted ErrorKind = "age_restricted"

	// KindToolFailure is a non-zero exit without a recognized diagnostic.
	KindToolFailure ErrorKind = "tool_failure"

	// KindOutputMissing means the tool exited cleanly but never printed a
	// locatable output file. This is a tool-contract violation, not a user
	// error.
	KindOutputMissing ErrorKind = "output_missing"
)

// DownloadError is the classified failure of one extraction run.
type DownloadError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *DownloadError) Error() string {
	return e.Message
}

// DownloadOutcome is the terminal result of one supervised run. It is
// constructed exactly once, at process-exit time, and immutable thereafter.
// Either FilePath (with FileName and Title) or Err is set, never both.
type DownloadOutcome struct {
	SourceURL string         `json:"source_url"`
	FilePath  string         `json:"file_path,omitempty"`
	FileName  string         `json:"file_name,omitempty"`
	Title     string         `json:"title,omitempty"`
	Err       *DownloadError `json:"error,omitempty"`
}

// NewSuccessOutcome builds a success outcome from the final file path printed
// by the extraction tool. FileName is the last path segment and Title is the
// file name with its extension stripped.
func NewSuccessOutcome(sourceURL, filePath string) *DownloadOutcome {
	name := filepath.Base(filePath)
	return &DownloadOutcome{
		SourceURL: sourceURL,
		FilePath:  filePath,
		FileName:  name,
		Title:     strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

// NewFailureOutcome builds a failure outcome with a classified error.
func NewFailureOutcome(sourceURL string, kind ErrorKind, message, details string) *DownloadOutcome {
	return &DownloadOutcome{
		SourceURL: sourceURL,
		Err: &DownloadError{
			Kind:    kind,
			Message: message,
			Details: details,
		},
	}
}

// Succeeded reports whether the run produced a file.
func (o *DownloadOutcome) Succeeded() bool {
	return o.Err == nil
}
