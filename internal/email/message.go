// Package email defines the core data model shared by the template store,
// the serializer and the delivery providers.
package email

import "time"

// Message is a fully resolved email, ready to be serialized. All placeholder
// substitution has already happened by the time a Message exists.
type Message struct {
	FromName    string
	FromAddress string
	// Recipients is the To header value. The address list is not parsed or
	// validated, but surrounding whitespace is trimmed and embedded line
	// breaks are folded into spaces, as for Cc and Subject.
	Recipients string
	Cc         string
	Subject    string
	HTMLBody   string
}

// Export is a serialized Message together with the filename it is saved under.
type Export struct {
	Filename string
	Data     []byte
	Message  *Message
	// Bcc holds blind-copy recipients. They travel on the envelope only and
	// never appear in Data.
	Bcc string
}

// Priority is the user-assigned urgency of a template.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Visibility controls who besides the owner can see a template.
type Visibility string

const (
	VisibilityPersonal Visibility = "personal"
	VisibilityTeam     Visibility = "team"
)

// Valid reports whether v is one of the known visibilities.
func (v Visibility) Valid() bool {
	return v == VisibilityPersonal || v == VisibilityTeam
}

// Placeholder is a named {Token} in a template with a sample value used
// when the caller does not supply one.
type Placeholder struct {
	Name   string `json:"name"`
	Sample string `json:"sample"`
}

// Template is a persisted, unresolved email.
type Template struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	TeamID       *string       `json:"team_id,omitempty"`
	FolderID     *string       `json:"folder_id,omitempty"`
	Name         string        `json:"name"`
	FromName     string        `json:"from_name"`
	FromEmail    string        `json:"from_email"`
	Recipients   string        `json:"recipients"`
	Cc           string        `json:"cc"`
	Bcc          string        `json:"bcc"`
	Subject      string        `json:"subject"`
	Body         string        `json:"body"`
	Placeholders []Placeholder `json:"placeholders"`
	Priority     Priority      `json:"priority"`
	Visibility   Visibility    `json:"visibility"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
