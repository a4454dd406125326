package calllog

import (
	"encoding/json"
	"fmt"
	"time"

	"vendorflow/internal/shared/biztime"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusEnded     Status = "ended"
	StatusPollError Status = "poll_error"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusEnded, StatusPollError:
		return true
	}
	return false
}

// Outcome carries what the provider reported when the call ended.
// Nil fields were not reported and leave the stored value alone.
type Outcome struct {
	Transcript    *string
	VerifiedEmail *string
	EndedReason   *string
	RecordingURL  *string
	Analysis      json.RawMessage
}

// VendorCallLog tracks one verification call. It is the persisted state of the
// poll loop, so any worker can resume a pending call.
type VendorCallLog struct {
	callID        string
	ticketID      string
	vendorID      string
	phoneNumber   string
	originalEmail string
	status        Status
	transcript    string
	verifiedEmail string
	endedReason   string
	recordingURL  string
	analysis      json.RawMessage
	pollAttempts  int
	lastError     string
	createdAt     time.Time
	updatedAt     time.Time
}

func NewVendorCallLog(callID, ticketID, vendorID, phoneNumber, originalEmail string) (*VendorCallLog, error) {
	if callID == "" {
		return nil, fmt.Errorf("call ID is required")
	}
	if phoneNumber == "" {
		return nil, fmt.Errorf("phone number is required")
	}

	now := biztime.NowUTC()
	return &VendorCallLog{
		callID:        callID,
		ticketID:      ticketID,
		vendorID:      vendorID,
		phoneNumber:   phoneNumber,
		originalEmail: originalEmail,
		status:        StatusPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func ReconstructVendorCallLog(
	callID string,
	ticketID string,
	vendorID string,
	phoneNumber string,
	originalEmail string,
	status Status,
	transcript string,
	verifiedEmail string,
	endedReason string,
	recordingURL string,
	analysis json.RawMessage,
	pollAttempts int,
	lastError string,
	createdAt, updatedAt time.Time,
) (*VendorCallLog, error) {
	if callID == "" {
		return nil, fmt.Errorf("call ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid call status: %s", status)
	}

	return &VendorCallLog{
		callID:        callID,
		ticketID:      ticketID,
		vendorID:      vendorID,
		phoneNumber:   phoneNumber,
		originalEmail: originalEmail,
		status:        status,
		transcript:    transcript,
		verifiedEmail: verifiedEmail,
		endedReason:   endedReason,
		recordingURL:  recordingURL,
		analysis:      analysis,
		pollAttempts:  pollAttempts,
		lastError:     lastError,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (l *VendorCallLog) CallID() string {
	return l.callID
}

func (l *VendorCallLog) TicketID() string {
	return l.ticketID
}

func (l *VendorCallLog) VendorID() string {
	return l.vendorID
}

func (l *VendorCallLog) PhoneNumber() string {
	return l.phoneNumber
}

func (l *VendorCallLog) OriginalEmail() string {
	return l.originalEmail
}

func (l *VendorCallLog) Status() Status {
	return l.status
}

func (l *VendorCallLog) Transcript() string {
	return l.transcript
}

func (l *VendorCallLog) VerifiedEmail() string {
	return l.verifiedEmail
}

func (l *VendorCallLog) EndedReason() string {
	return l.endedReason
}

func (l *VendorCallLog) RecordingURL() string {
	return l.recordingURL
}

func (l *VendorCallLog) Analysis() json.RawMessage {
	return l.analysis
}

func (l *VendorCallLog) PollAttempts() int {
	return l.pollAttempts
}

func (l *VendorCallLog) LastError() string {
	return l.lastError
}

func (l *VendorCallLog) CreatedAt() time.Time {
	return l.createdAt
}

func (l *VendorCallLog) UpdatedAt() time.Time {
	return l.updatedAt
}

func (l *VendorCallLog) IsPending() bool {
	return l.status == StatusPending
}

// RecordPoll counts one status check against the provider.
func (l *VendorCallLog) RecordPoll() {
	l.pollAttempts++
	l.updatedAt = biztime.NowUTC()
}

// Finish marks the call ended and writes only the fields present in o.
func (l *VendorCallLog) Finish(o Outcome) {
	if o.Transcript != nil && *o.Transcript != "" {
		l.transcript = *o.Transcript
	}
	if o.VerifiedEmail != nil && *o.VerifiedEmail != "" {
		l.verifiedEmail = *o.VerifiedEmail
	}
	if o.EndedReason != nil && *o.EndedReason != "" {
		l.endedReason = *o.EndedReason
	}
	if o.RecordingURL != nil && *o.RecordingURL != "" {
		l.recordingURL = *o.RecordingURL
	}
	if len(o.Analysis) > 0 && string(o.Analysis) != "null" {
		l.analysis = o.Analysis
	}
	l.status = StatusEnded
	l.lastError = ""
	l.updatedAt = biztime.NowUTC()
}

// MarkPollError records a failed or timed-out poll. The call itself may still
// be running on the provider side.
func (l *VendorCallLog) MarkPollError(reason string) {
	if l.status == StatusEnded {
		return
	}
	l.status = StatusPollError
	l.lastError = reason
	l.updatedAt = biztime.NowUTC()
}
