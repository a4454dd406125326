package discovery

import (
	"fmt"
	"time"

	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/id"
)

type Source string

const (
	SourceDatabase Source = "database"
	SourceWeb      Source = "web"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusCompleted, StatusTimedOut, StatusFailed:
		return true
	}
	return false
}

func (s Status) IsFinal() bool {
	return s != StatusRunning
}

// Candidate is one vendor found for a ticket. Degraded candidates were built
// from search metadata only because extraction yielded no contact fields.
type Candidate struct {
	BusinessName string   `json:"business_name"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Specialty    string   `json:"specialty,omitempty"`
	Address      string   `json:"address,omitempty"`
	Description  string   `json:"description,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
	VendorID     string   `json:"vendor_id,omitempty"`
	Position     int      `json:"position"`
	Degraded     bool     `json:"degraded,omitempty"`
}

func (c Candidate) HasEmail() bool {
	return c.Email != ""
}

// DiscoveryResult is the snapshot of candidates produced by one discovery run.
// Candidates are only ever appended.
type DiscoveryResult struct {
	id          string
	ticketID    string
	source      Source
	status      Status
	candidates  []Candidate
	timeoutNote string
	createdAt   time.Time
	updatedAt   time.Time
}

func NewDiscoveryResult(ticketID string, source Source) (*DiscoveryResult, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if source != SourceDatabase && source != SourceWeb {
		return nil, fmt.Errorf("invalid source: %s", source)
	}

	now := biztime.NowUTC()
	return &DiscoveryResult{
		id:         id.New(),
		ticketID:   ticketID,
		source:     source,
		status:     StatusRunning,
		candidates: []Candidate{},
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructDiscoveryResult(
	resultID string,
	ticketID string,
	source Source,
	status Status,
	candidates []Candidate,
	timeoutNote string,
	createdAt, updatedAt time.Time,
) (*DiscoveryResult, error) {
	if resultID == "" {
		return nil, fmt.Errorf("discovery result ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid discovery status: %s", status)
	}
	if candidates == nil {
		candidates = []Candidate{}
	}

	return &DiscoveryResult{
		id:          resultID,
		ticketID:    ticketID,
		source:      source,
		status:      status,
		candidates:  candidates,
		timeoutNote: timeoutNote,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (r *DiscoveryResult) ID() string {
	return r.id
}

func (r *DiscoveryResult) TicketID() string {
	return r.ticketID
}

func (r *DiscoveryResult) Source() Source {
	return r.source
}

func (r *DiscoveryResult) Status() Status {
	return r.status
}

func (r *DiscoveryResult) TimeoutNote() string {
	return r.timeoutNote
}

func (r *DiscoveryResult) CreatedAt() time.Time {
	return r.createdAt
}

func (r *DiscoveryResult) UpdatedAt() time.Time {
	return r.updatedAt
}

func (r *DiscoveryResult) Candidates() []Candidate {
	out := make([]Candidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

func (r *DiscoveryResult) Len() int {
	return len(r.candidates)
}

// AppendCandidate adds c to the end of the list while the run is still open.
func (r *DiscoveryResult) AppendCandidate(c Candidate) error {
	if r.status.IsFinal() {
		return fmt.Errorf("discovery result %s is %s", r.id, r.status)
	}
	if c.BusinessName == "" {
		return fmt.Errorf("candidate business name is required")
	}
	r.candidates = append(r.candidates, c)
	r.updatedAt = biztime.NowUTC()
	return nil
}

func (r *DiscoveryResult) Complete() {
	r.finish(StatusCompleted, "")
}

// TimeOut closes the run after the soft deadline and records why it stopped early.
func (r *DiscoveryResult) TimeOut(note string) {
	r.finish(StatusTimedOut, note)
}

func (r *DiscoveryResult) Fail(note string) {
	r.finish(StatusFailed, note)
}

func (r *DiscoveryResult) finish(status Status, note string) {
	if r.status.IsFinal() {
		return
	}
	r.status = status
	r.timeoutNote = note
	r.updatedAt = biztime.NowUTC()
}
