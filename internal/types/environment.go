package types

// ModelEnvironment is one configured backend entry: where enhancement and
// chat requests go and which credentials/models they use. Any field except
// ID may be unset.
type ModelEnvironment struct {
	ID                 string `json:"id" toml:"id"`
	Name               string `json:"name,omitempty" toml:"name,omitempty"`
	BaseURL            string `json:"base_url,omitempty" toml:"base_url,omitempty"`
	APIKey             string `json:"api_key,omitempty" toml:"api_key,omitempty"`
	SummarisationModel string `json:"summarisation_model,omitempty" toml:"summarisation_model,omitempty"`
	ChatModel          string `json:"chat_model,omitempty" toml:"chat_model,omitempty"`
}
