// Package firecrawl implements web discovery on the Firecrawl search and
// extract APIs.
package firecrawl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vendorflow/internal/application/discovery/webdiscovery"
	"vendorflow/internal/infrastructure/httpclient"
	"vendorflow/internal/shared/config"
)

const extractPrompt = "Extract the contact details of the business on this page: business name, " +
	"email address, phone number, street address, trade or specialty, a one sentence description " +
	"and its customer rating out of 5 if shown."

// vendorSchema is the JSON schema sent with every extract request.
var vendorSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"business_name": map[string]any{"type": "string"},
		"email":         map[string]any{"type": "string"},
		"phone":         map[string]any{"type": "string"},
		"address":       map[string]any{"type": "string"},
		"specialty":     map[string]any{"type": "string"},
		"description":   map[string]any{"type": "string"},
		"rating":        map[string]any{"type": "number"},
	},
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"data"`
	Error string `json:"error"`
}

type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type extractResponse struct {
	Success bool            `json:"success"`
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type extractedRecord struct {
	BusinessName string          `json:"business_name"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Specialty    string          `json:"specialty"`
	Description  string          `json:"description"`
	Rating       json.RawMessage `json:"rating"`
}

// Client implements webdiscovery.WebDiscovery.
type Client struct {
	http *httpclient.Client
}

var _ webdiscovery.WebDiscovery = (*Client)(nil)

func NewClient(cfg *config.FirecrawlConfig) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			Name:    "firecrawl",
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}),
	}
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]webdiscovery.SearchResult, error) {
	var resp searchResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, "/v1/search", searchRequest{Query: query, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("firecrawl search failed: %s", resp.Error)
	}

	results := make([]webdiscovery.SearchResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL == "" {
			continue
		}
		results = append(results, webdiscovery.SearchResult{
			URL:         d.URL,
			Title:       strings.TrimSpace(d.Title),
			Description: strings.TrimSpace(d.Description),
		})
	}
	return results, nil
}

// Extract submits one URL. The API answers either with data inline or with a
// job id; anything else is reported as unrecognized.
func (c *Client) Extract(ctx context.Context, pageURL string) (*webdiscovery.ExtractSubmission, error) {
	req := extractRequest{URLs: []string{pageURL}, Prompt: extractPrompt, Schema: vendorSchema}

	var resp extractResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, "/v1/extract", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("firecrawl extract failed: %s", resp.Error)
	}

	if vendor, ok := decodeVendor(resp.Data); ok {
		return &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionImmediate, Vendor: vendor}, nil
	}
	if resp.ID != "" {
		return &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionJob, JobID: resp.ID}, nil
	}
	return &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionUnrecognized}, nil
}

func (c *Client) GetExtractStatus(ctx context.Context, jobID string) (*webdiscovery.ExtractStatus, error) {
	var resp extractResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, "/v1/extract/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, err
	}

	status := &webdiscovery.ExtractStatus{
		State: webdiscovery.JobState(strings.ToLower(resp.Status)),
		Error: resp.Error,
	}
	if status.State == "" {
		status.State = webdiscovery.JobProcessing
	}
	if status.State == webdiscovery.JobCompleted {
		status.Vendor, _ = decodeVendor(resp.Data)
	}
	return status, nil
}

// decodeVendor accepts an object or a list of objects and returns the first
// record that names a business or carries contact details.
func decodeVendor(raw json.RawMessage) (*webdiscovery.ExtractedVendor, bool) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}

	var records []extractedRecord
	switch raw[0] {
	case '{':
		var rec extractedRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, false
		}
		records = append(records, rec)
	case '[':
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, false
		}
	default:
		return nil, false
	}

	for _, rec := range records {
		v := rec.toVendor()
		if v.BusinessName != "" || v.HasContact() {
			return v, true
		}
	}
	return nil, false
}

func (r extractedRecord) toVendor() *webdiscovery.ExtractedVendor {
	name := r.BusinessName
	if name == "" {
		name = r.Name
	}
	return &webdiscovery.ExtractedVendor{
		BusinessName: strings.TrimSpace(name),
		Email:        strings.TrimSpace(r.Email),
		Phone:        strings.TrimSpace(r.Phone),
		Address:      strings.TrimSpace(r.Address),
		Specialty:    strings.TrimSpace(r.Specialty),
		Description:  strings.TrimSpace(r.Description),
		Rating:       parseRating(r.Rating),
	}
}

// parseRating accepts a number or a numeric string.
func parseRating(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &parsed
		}
	}
	return nil
}
