// Package domain provides core business types for the leads bounded context.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Message is a single entry in a lead conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "agent"
	Content string `json:"content"`
}

// IsUser reports whether the message was authored by the lead.
func (m Message) IsUser() bool {
	return strings.EqualFold(m.Role, "user")
}

// Preferences holds the structured preferences extracted from a
// conversation. All values are free-form strings; a field counts toward
// qualification when it is non-blank.
type Preferences struct {
	Budget     string `json:"budget,omitempty"`
	Location   string `json:"location,omitempty"`
	Timeline   string `json:"timeline,omitempty"`
	Bedrooms   string `json:"bedrooms,omitempty"`
	Financing  string `json:"financing,omitempty"`
	Motivation string `json:"motivation,omitempty"`
	MustHaves  string `json:"mustHaves,omitempty"`
}

// QualificationFields lists the required qualification fields in the
// order agents review them. Qualification completeness and the 0-7
// qualification score are both counts over this set.
var QualificationFields = []string{
	"budget",
	"location",
	"timeline",
	"bedrooms",
	"financing",
	"motivation",
	"must_haves",
}

// Fields returns the preference values keyed by qualification field name.
func (p Preferences) Fields() map[string]string {
	return map[string]string{
		"budget":     p.Budget,
		"location":   p.Location,
		"timeline":   p.Timeline,
		"bedrooms":   p.Bedrooms,
		"financing":  p.Financing,
		"motivation": p.Motivation,
		"must_haves": p.MustHaves,
	}
}

// Has reports whether the named qualification field is present and non-blank.
func (p Preferences) Has(field string) bool {
	return strings.TrimSpace(p.Fields()[field]) != ""
}

// PresentCount returns how many of the required qualification fields are set.
func (p Preferences) PresentCount() int {
	count := 0
	for _, field := range QualificationFields {
		if p.Has(field) {
			count++
		}
	}
	return count
}

// MissingFields returns the qualification fields that are still blank.
func (p Preferences) MissingFields() []string {
	missing := make([]string, 0, len(QualificationFields))
	for _, field := range QualificationFields {
		if !p.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// ConversationContext is the raw input to the scoring pipeline: the full
// message history plus whatever structured preferences have been extracted
// so far. CreatedAt is kept as the raw ISO-8601 string from the source
// system; parsing is tolerant and defaults to "now" when it is malformed.
type ConversationContext struct {
	LeadID      uuid.UUID   `json:"leadId"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	Messages    []Message   `json:"messages"`
	Preferences Preferences `json:"preferences"`
}

// UserText returns the concatenated content of user-authored messages.
// Sentiment and urgency signals are read from the lead's own words, not
// from agent replies.
func (c ConversationContext) UserText() string {
	var b strings.Builder
	for _, msg := range c.Messages {
		if !msg.IsUser() {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}
