package config

import (
	"strings"

	"talky/internal/types"
)

// EffectiveEnvironment is the derived result of environment resolution.
// It is recomputed on every call and never stored; Environment is nil and
// EnvironmentID empty when no record matched.
type EffectiveEnvironment struct {
	Environment        *types.ModelEnvironment
	EnvironmentID      string
	BaseURL            string
	APIKey             string
	SummarisationModel string
	ChatModel          string
	IsConfigured       bool
}

// ResolveEnvironment picks one environment record deterministically:
// the session-scoped id wins when non-empty, then the default id, then the
// id of the first record in the list. An unmatched id or an empty list
// yields a fully-defaulted, unconfigured result, never an error.
func ResolveEnvironment(sessionEnvID string, environments []types.ModelEnvironment, defaultEnvID string) EffectiveEnvironment {
	effectiveID := strings.TrimSpace(sessionEnvID)
	if effectiveID == "" {
		effectiveID = strings.TrimSpace(defaultEnvID)
	}
	if effectiveID == "" && len(environments) > 0 {
		effectiveID = strings.TrimSpace(environments[0].ID)
	}

	var selected *types.ModelEnvironment
	if effectiveID != "" {
		for i := range environments {
			if strings.TrimSpace(environments[i].ID) == effectiveID {
				env := environments[i]
				selected = &env
				break
			}
		}
	}
	if selected == nil {
		return EffectiveEnvironment{}
	}

	out := EffectiveEnvironment{
		Environment:        selected,
		EnvironmentID:      effectiveID,
		BaseURL:            strings.TrimSpace(selected.BaseURL),
		APIKey:             strings.TrimSpace(selected.APIKey),
		SummarisationModel: strings.TrimSpace(selected.SummarisationModel),
		ChatModel:          strings.TrimSpace(selected.ChatModel),
	}
	out.IsConfigured = out.BaseURL != "" && out.APIKey != ""
	return out
}

// EffectiveEnvironment resolves against this settings snapshot. Callers
// wanting reactive behavior re-invoke it whenever settings change; the
// resolution logic is the same either way.
func (s Settings) EffectiveEnvironment(sessionEnvID string) EffectiveEnvironment {
	return ResolveEnvironment(sessionEnvID, s.Environments(), s.DefaultEnvironmentID)
}
