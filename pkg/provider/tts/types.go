package tts

// Voice describes one voice offered by a provider.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID string `json:"id"`

	// Name is the human-readable voice name shown in voice pickers.
	Name string `json:"name"`

	// Language is the BCP-47 tag the voice speaks (e.g. "en-US"). Empty when
	// the provider does not report one.
	Language string `json:"language,omitempty"`

	// Provider identifies which TTS provider the voice belongs to.
	Provider string `json:"provider,omitempty"`

	// Metadata holds provider-specific attributes (gender, accent, category).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Label renders the voice as "name (language)" for pickers.
func (v Voice) Label() string {
	if v.Language == "" {
		return v.Name
	}
	return v.Name + " (" + v.Language + ")"
}
