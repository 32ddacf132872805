package model

// Settings holds the operator-controlled UI flags.
type Settings struct {
	ShowSendToEmail bool `json:"showSendToEmail"`
}

// DefaultSettings is used when no settings have been persisted yet.
func DefaultSettings() Settings {
	return Settings{ShowSendToEmail: true}
}
