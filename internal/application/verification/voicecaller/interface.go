// Package voicecaller defines the outbound voice-call port used to confirm a
// vendor's email address by phone.
package voicecaller

import (
	"context"
	"encoding/json"
	"strings"
)

// CreateCallRequest describes the call to place.
type CreateCallRequest struct {
	PhoneNumber   string
	BusinessName  string
	TicketSummary string
	Metadata      map[string]string
}

// CallState is the provider call status. Only CallEnded is terminal.
type CallState string

const (
	CallQueued     CallState = "queued"
	CallRinging    CallState = "ringing"
	CallInProgress CallState = "in-progress"
	CallForwarding CallState = "forwarding"
	CallEnded      CallState = "ended"
)

// TranscriptKind tags where the provider put the transcript.
type TranscriptKind int

const (
	TranscriptNone TranscriptKind = iota
	TranscriptText
	TranscriptMessages
)

// TranscriptMessage is one turn of a message-list transcript.
type TranscriptMessage struct {
	Role    string
	Message string
}

// TranscriptSource is the transcript in whichever shape the provider returned.
type TranscriptSource struct {
	Kind     TranscriptKind
	Raw      string
	Messages []TranscriptMessage
}

// Text flattens the transcript into "role: message" lines.
func (t TranscriptSource) Text() string {
	switch t.Kind {
	case TranscriptText:
		return t.Raw
	case TranscriptMessages:
		lines := make([]string, 0, len(t.Messages))
		for _, m := range t.Messages {
			msg := strings.TrimSpace(m.Message)
			if msg == "" {
				continue
			}
			if m.Role == "" {
				lines = append(lines, msg)
				continue
			}
			lines = append(lines, m.Role+": "+msg)
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// Call is a snapshot of a placed call.
type Call struct {
	ID           string
	Status       CallState
	Transcript   TranscriptSource
	EndedReason  string
	RecordingURL string
	Analysis     json.RawMessage
}

// VoiceCaller places calls and reports their progress.
type VoiceCaller interface {
	CreateCall(ctx context.Context, req CreateCallRequest) (string, error)
	GetCall(ctx context.Context, callID string) (*Call, error)
}
