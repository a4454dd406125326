package calllog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestNewVendorCallLog(t *testing.T) {
	l, err := NewVendorCallLog("call-1", "tk1", "v1", "+17327332541", "info@acme.com")
	require.NoError(t, err)
	assert.True(t, l.IsPending())
	assert.Zero(t, l.PollAttempts())

	_, err = NewVendorCallLog("", "tk1", "v1", "+17327332541", "")
	assert.Error(t, err)
}

func TestFinish_WritesOnlyPresentFields(t *testing.T) {
	l, err := NewVendorCallLog("call-1", "tk1", "v1", "+17327332541", "info@acme.com")
	require.NoError(t, err)

	l.Finish(Outcome{
		Transcript:    strPtr("reach me at sales@acme.com"),
		VerifiedEmail: strPtr("sales@acme.com"),
		Analysis:      json.RawMessage(`{"summary":"ok"}`),
	})
	l.Finish(Outcome{
		EndedReason:  strPtr("customer-ended-call"),
		Transcript:   strPtr(""),
		RecordingURL: nil,
		Analysis:     json.RawMessage("null"),
	})

	assert.Equal(t, StatusEnded, l.Status())
	assert.Equal(t, "reach me at sales@acme.com", l.Transcript())
	assert.Equal(t, "sales@acme.com", l.VerifiedEmail())
	assert.Equal(t, "customer-ended-call", l.EndedReason())
	assert.JSONEq(t, `{"summary":"ok"}`, string(l.Analysis()))
}

func TestMarkPollError(t *testing.T) {
	l, err := NewVendorCallLog("call-1", "tk1", "v1", "+17327332541", "")
	require.NoError(t, err)

	l.RecordPoll()
	l.MarkPollError("connection reset")
	assert.Equal(t, StatusPollError, l.Status())
	assert.Equal(t, 1, l.PollAttempts())
	assert.Equal(t, "connection reset", l.LastError())

	l.Finish(Outcome{})
	l.MarkPollError("late")
	assert.Equal(t, StatusEnded, l.Status())
	assert.Empty(t, l.LastError())
}
