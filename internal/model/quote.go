package model

// Quote is a single motivational quote. It is never persisted.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// EmailTag labels why an email was sent and drives the subject line.
type EmailTag string

const (
	TagDaily    EmailTag = "Daily"
	TagManual   EmailTag = "Manual"
	TagPersonal EmailTag = "Personal"
)
