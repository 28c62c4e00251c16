package queue

import (
	"strings"

	"promptq/internal/backend"
	"promptq/pkg/types"
)

// Settings returns the provider settings the next dequeued request will use.
func (q *Queue) Settings() backend.ProviderConfig {
	return *q.settings.Load()
}

// SetProvider switches the provider. Unknown names are rejected and leave the
// settings untouched. The model resets to the new provider's default.
func (q *Queue) SetProvider(name string) error {
	_, err := q.UpdateSettings(types.SettingsUpdate{Provider: &name})
	return err
}

// SetModel overrides the model; an empty string restores the provider default.
func (q *Queue) SetModel(model string) {
	_, _ = q.UpdateSettings(types.SettingsUpdate{Model: &model})
}

// SetSystemPrompt replaces the system prompt.
func (q *Queue) SetSystemPrompt(prompt string) {
	_, _ = q.UpdateSettings(types.SettingsUpdate{SystemPrompt: &prompt})
}

// UpdateSettings applies u atomically. Requests already executing keep the
// settings they started with; every request dequeued afterwards sees u.
func (q *Queue) UpdateSettings(u types.SettingsUpdate) (backend.ProviderConfig, error) {
	q.settingsMu.Lock()
	defer q.settingsMu.Unlock()
	next := *q.settings.Load()
	if u.Provider != nil {
		name := canonicalProvider(*u.Provider)
		if !q.router.Has(name) {
			return next, backend.ErrUnknownProvider(*u.Provider)
		}
		if name != next.Provider {
			next.Model = ""
		}
		next.Provider = name
	}
	if u.Model != nil {
		next.Model = strings.TrimSpace(*u.Model)
	}
	if u.SystemPrompt != nil {
		next.SystemPrompt = *u.SystemPrompt
	}
	q.settings.Store(&next)
	q.log.Info().Str("provider", next.Provider).Str("model", next.Model).Msg("settings updated")
	return next, nil
}

// Providers lists the provider names settings may switch to.
func (q *Queue) Providers() []string { return q.router.Names() }

func canonicalProvider(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
