// Package correlation ties outbound emails and their replies back to a ticket.
// Subjects carry "[Ticket #<id>]" and Message-IDs have the form
// <ticket-<id>.<nonce>@<domain>>.
package correlation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"vendorflow/internal/shared/id"
)

var (
	subjectMarkerPattern = regexp.MustCompile(`\[Ticket #([A-Za-z0-9]+)\]`)
	bodyMarkerPattern    = regexp.MustCompile(`(?i)ticket\s*#\s*([A-Za-z0-9]+)`)
	messageIDPattern     = regexp.MustCompile(`^ticket-([A-Za-z0-9]+)\.[A-Za-z0-9-]+@`)
	angleTokenPattern    = regexp.MustCompile(`<[^<>\s]+>`)
)

func SubjectMarker(ticketID string) string {
	return fmt.Sprintf("[Ticket #%s]", ticketID)
}

// WithSubjectMarker appends the ticket marker unless subject already has it.
func WithSubjectMarker(subject, ticketID string) string {
	marker := SubjectMarker(ticketID)
	if strings.Contains(subject, marker) {
		return subject
	}
	return strings.TrimSpace(subject + " " + marker)
}

// ReplySubject prefixes "Re: " once.
func ReplySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}

// FromSubject returns the ticket id in a subject marker.
func FromSubject(subject string) (string, bool) {
	return firstValid(subjectMarkerPattern.FindAllStringSubmatch(subject, -1))
}

// FromBody looks for a marker anywhere in free text, bracketed or not.
func FromBody(body string) (string, bool) {
	if ticketID, ok := firstValid(subjectMarkerPattern.FindAllStringSubmatch(body, -1)); ok {
		return ticketID, true
	}
	return firstValid(bodyMarkerPattern.FindAllStringSubmatch(body, -1))
}

// NewMessageID builds a Message-ID that encodes the ticket id.
func NewMessageID(ticketID, domain string) string {
	return fmt.Sprintf("<ticket-%s.%s@%s>", ticketID, uuid.NewString(), domain)
}

// FromMessageID extracts the ticket id from a Message-ID we generated.
func FromMessageID(messageID string) (string, bool) {
	m := messageIDPattern.FindStringSubmatch(strings.Trim(strings.TrimSpace(messageID), "<>"))
	if m == nil || !id.IsValid(m[1]) {
		return "", false
	}
	return m[1], true
}

// SplitMessageIDs returns the <...> tokens of an In-Reply-To or References header
// in header order. A bare id without brackets is returned as is.
func SplitMessageIDs(header string) []string {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	tokens := angleTokenPattern.FindAllString(header, -1)
	if len(tokens) == 0 {
		return strings.Fields(header)
	}
	return tokens
}

// NormalizeMessageID returns messageID wrapped in angle brackets.
func NormalizeMessageID(messageID string) string {
	messageID = strings.Trim(strings.TrimSpace(messageID), "<>")
	if messageID == "" {
		return ""
	}
	return "<" + messageID + ">"
}

func firstValid(matches [][]string) (string, bool) {
	for _, m := range matches {
		if len(m) > 1 && id.IsValid(m[1]) {
			return m[1], true
		}
	}
	return "", false
}
