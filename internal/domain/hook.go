package domain

import "context"

// PublishCredentials is a per-request credential override for the social
// publish hook.
type PublishCredentials struct {
	AccessToken string `json:"access_token"`
}

// HookConfig is the per-request override bundle for the notification fan-out.
// An absent field means "use the process-wide default for that channel, if
// any"; a present field entirely replaces the default.
type HookConfig struct {
	Publish      *PublishCredentials `json:"publish,omitempty"`
	ChatWebhooks []string            `json:"chat_webhooks,omitempty"`
	Webhooks     []string            `json:"webhooks,omitempty"`
}

// Hook is one downstream notification channel invoked after a successful
// download. Hooks are immutable descriptors built once at startup from
// default configuration; Execute is a pure function of the outcome, the
// per-request overrides and that configuration.
//
// A returned error is observed and logged by the fan-out but never escalated
// past it.
type Hook interface {
	// Name identifies the hook in logs.
	Name() string

	// Execute delivers the outcome to the hook's resolved targets. A hook
	// with no resolved target is a silent no-op and returns nil.
	Execute(ctx context.Context, outcome *DownloadOutcome, overrides *HookConfig) error
}
