// Package vapi implements the voice caller on the Vapi phone call API.
package vapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vendorflow/internal/application/verification/voicecaller"
	"vendorflow/internal/infrastructure/httpclient"
	"vendorflow/internal/shared/config"
)

type customer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

type createCallRequest struct {
	AssistantID        string              `json:"assistantId"`
	PhoneNumberID      string              `json:"phoneNumberId"`
	Customer           customer            `json:"customer"`
	AssistantOverrides *assistantOverrides `json:"assistantOverrides,omitempty"`
	Metadata           map[string]string   `json:"metadata,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type callResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Transcript   string          `json:"transcript"`
	Messages     []message       `json:"messages"`
	EndedReason  string          `json:"endedReason"`
	RecordingURL string          `json:"recordingUrl"`
	Analysis     json.RawMessage `json:"analysis"`
	Artifact     *struct {
		Transcript   string    `json:"transcript"`
		Messages     []message `json:"messages"`
		RecordingURL string    `json:"recordingUrl"`
	} `json:"artifact"`
}

// Client implements voicecaller.VoiceCaller.
type Client struct {
	http          *httpclient.Client
	assistantID   string
	phoneNumberID string
}

var _ voicecaller.VoiceCaller = (*Client)(nil)

func NewClient(cfg *config.VapiConfig) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			Name:    "vapi",
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}),
		assistantID:   cfg.AssistantID,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

func (c *Client) CreateCall(ctx context.Context, req voicecaller.CreateCallRequest) (string, error) {
	body := createCallRequest{
		AssistantID:   c.assistantID,
		PhoneNumberID: c.phoneNumberID,
		Customer:      customer{Number: req.PhoneNumber, Name: req.BusinessName},
		AssistantOverrides: &assistantOverrides{VariableValues: map[string]string{
			"business_name":  req.BusinessName,
			"ticket_summary": req.TicketSummary,
		}},
		Metadata: req.Metadata,
	}

	var resp callResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, "/call", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("vapi: create call returned no call id")
	}
	return resp.ID, nil
}

func (c *Client) GetCall(ctx context.Context, callID string) (*voicecaller.Call, error) {
	var resp callResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, "/call/"+url.PathEscape(callID), nil, &resp); err != nil {
		return nil, err
	}

	call := &voicecaller.Call{
		ID:           resp.ID,
		Status:       voicecaller.CallState(strings.ToLower(resp.Status)),
		Transcript:   resp.transcript(),
		EndedReason:  resp.EndedReason,
		RecordingURL: resp.RecordingURL,
	}
	if call.ID == "" {
		call.ID = callID
	}
	if len(resp.Analysis) > 0 && string(resp.Analysis) != "null" {
		call.Analysis = resp.Analysis
	}
	if call.RecordingURL == "" && resp.Artifact != nil {
		call.RecordingURL = resp.Artifact.RecordingURL
	}
	return call, nil
}

// transcript prefers a plain text transcript, then the message list, looking
// at the top level before the artifact.
func (r *callResponse) transcript() voicecaller.TranscriptSource {
	text := r.Transcript
	messages := r.Messages
	if r.Artifact != nil {
		if text == "" {
			text = r.Artifact.Transcript
		}
		if len(messages) == 0 {
			messages = r.Artifact.Messages
		}
	}

	if strings.TrimSpace(text) != "" {
		return voicecaller.TranscriptSource{Kind: voicecaller.TranscriptText, Raw: text}
	}
	if len(messages) > 0 {
		out := make([]voicecaller.TranscriptMessage, 0, len(messages))
		for _, m := range messages {
			out = append(out, voicecaller.TranscriptMessage{Role: m.Role, Message: m.Message})
		}
		return voicecaller.TranscriptSource{Kind: voicecaller.TranscriptMessages, Messages: out}
	}
	return voicecaller.TranscriptSource{Kind: voicecaller.TranscriptNone}
}
