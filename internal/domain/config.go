package domain

import (
	"path/filepath"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Download DownloadConfig `mapstructure:"download"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// RequestTimeout is the coarse connection-level bound on one download
	// request; the supervisor itself imposes no timeout.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DownloadConfig contains extraction-related configuration
type DownloadConfig struct {
	BaseDir string `mapstructure:"base_dir"`

	// ExtractorBinary is the external extraction tool (yt-dlp compatible).
	ExtractorBinary string `mapstructure:"extractor_binary"`

	// MediaToolDir, when set, is prepended to the child's PATH so the
	// extractor can locate the media processing tool (ffmpeg).
	MediaToolDir string `mapstructure:"media_tool_dir"`
}

// AudioDir returns the destination directory for audio-only downloads.
func (c *DownloadConfig) AudioDir() string {
	return filepath.Join(c.BaseDir, "audio")
}

// VideoDir returns the destination directory for video downloads.
func (c *DownloadConfig) VideoDir() string {
	return filepath.Join(c.BaseDir, "video")
}

// CookiesDir returns the directory holding per-request cookie temp files.
func (c *DownloadConfig) CookiesDir() string {
	return filepath.Join(c.BaseDir, "cookies")
}

// LogsDir returns the directory holding category log files.
func (c *DownloadConfig) LogsDir() string {
	return filepath.Join(c.BaseDir, "logs")
}

// PublishConfig contains the social-publish hook defaults
type PublishConfig struct {
	APIBase     string `mapstructure:"api_base"`
	AccessToken string `mapstructure:"access_token"`
}

// ChatConfig contains the chat-notify hook defaults
type ChatConfig struct {
	WebhookURLs []string `mapstructure:"webhook_urls"`
}

// WebhookConfig contains the generic-webhook hook defaults
type WebhookConfig struct {
	URLs []string `mapstructure:"urls"`
}

// HistoryConfig contains download-history configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8090,
			RequestTimeout: 20 * time.Minute,
		},
		Download: DownloadConfig{
			BaseDir:         "$HOME/Downloads/media-relay",
			ExtractorBinary: "yt-dlp",
			MediaToolDir:    "",
		},
		Publish: PublishConfig{
			APIBase:     "",
			AccessToken: "",
		},
		Chat: ChatConfig{
			WebhookURLs: nil,
		},
		Webhook: WebhookConfig{
			URLs: nil,
		},
		History: HistoryConfig{
			DatabasePath: "$HOME/Downloads/media-relay/history.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
