package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// DownloadRequest is the immutable input for one supervised extraction run.
// StartTime and EndTime are offsets in seconds and must be supplied together.
type DownloadRequest struct {
	URL        string      `json:"url"`
	AudioOnly  bool        `json:"audio_only"`
	StartTime  *int        `json:"start_time,omitempty"`
	EndTime    *int        `json:"end_time,omitempty"`
	CookieText string      `json:"-"`
	SubFolder  string      `json:"folder,omitempty"`
	Hooks      *HookConfig `json:"hooks,omitempty"`
}

// HasRange reports whether a sub-clip time range was requested.
func (r *DownloadRequest) HasRange() bool {
	return r.StartTime != nil && r.EndTime != nil
}

// Validate checks the request invariants before the supervisor is invoked.
func (r *DownloadRequest) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(r.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid source url: %s", r.URL)
	}

	if (r.StartTime == nil) != (r.EndTime == nil) {
		return fmt.Errorf("start_time and end_time must be supplied together")
	}
	if r.HasRange() {
		if *r.StartTime < 0 || *r.EndTime < 0 {
			return fmt.Errorf("time range offsets cannot be negative")
		}
		if *r.StartTime >= *r.EndTime {
			return fmt.Errorf("start_time must be before end_time")
		}
	}

	if strings.Contains(r.SubFolder, "..") || strings.ContainsRune(r.SubFolder, '/') {
		return fmt.Errorf("invalid folder name: %s", r.SubFolder)
	}

	return nil
}

// IsSoundCloud reports whether the source URL points at SoundCloud. SoundCloud
// sources are always fetched as audio, in a lossless format.
func (r *DownloadRequest) IsSoundCloud() bool {
	u, err := url.Parse(r.URL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "soundcloud.com" || strings.HasSuffix(host, ".soundcloud.com")
}
