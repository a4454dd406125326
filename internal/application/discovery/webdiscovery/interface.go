// Package webdiscovery defines the web search and page extraction port used
// to find vendors that are not yet in the database.
package webdiscovery

import "context"

// SearchResult is one organic search hit.
type SearchResult struct {
	URL         string
	Title       string
	Description string
}

// ExtractedVendor is the structured business record pulled from a page.
type ExtractedVendor struct {
	BusinessName string
	Email        string
	Phone        string
	Address      string
	Specialty    string
	Description  string
	Rating       *float64
}

// HasContact reports whether the record carries an email or a phone number.
func (v *ExtractedVendor) HasContact() bool {
	return v != nil && (v.Email != "" || v.Phone != "")
}

// SubmissionKind tags the shape of an extraction response.
type SubmissionKind int

const (
	// SubmissionUnrecognized means the response matched no known shape.
	SubmissionUnrecognized SubmissionKind = iota
	// SubmissionImmediate carries the extracted data inline.
	SubmissionImmediate
	// SubmissionJob carries a job id to poll.
	SubmissionJob
)

// ExtractSubmission is the result of submitting one URL for extraction.
type ExtractSubmission struct {
	Kind   SubmissionKind
	Vendor *ExtractedVendor
	JobID  string
}

// JobState is the provider-reported state of an extraction job.
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobCancelled  JobState = "cancelled"
)

func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// ExtractStatus is one poll of an extraction job.
type ExtractStatus struct {
	State  JobState
	Vendor *ExtractedVendor
	Error  string
}

// WebDiscovery searches the web and extracts vendor records from result pages.
type WebDiscovery interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Extract(ctx context.Context, url string) (*ExtractSubmission, error)
	GetExtractStatus(ctx context.Context, jobID string) (*ExtractStatus, error)
}
