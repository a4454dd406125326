package ticket

import (
	"errors"
	"fmt"
	"strings"
	"time"

	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/id"
)

// ErrInvalidTransition is returned when the status table does not allow a move.
// Callers keep the ticket in its current status.
var ErrInvalidTransition = errors.New("invalid ticket status transition")

type Ticket struct {
	id                    string
	ownerEmail            string
	title                 string
	description           string
	specialty             string
	tags                  []string
	urgency               vo.Urgency
	location              string
	status                vo.TicketStatus
	discoveryResultID     string
	selectedVendorID      string
	selectedVendorQuoteID string
	quoteStatus           vo.QuoteStatus
	scheduledDate         *time.Time
	embedding             []float32
	createdAt             time.Time
	updatedAt             time.Time
}

func NewTicket(
	ownerEmail string,
	title string,
	description string,
	specialty string,
	tags []string,
	urgency vo.Urgency,
	location string,
) (*Ticket, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(title) > 200 {
		return nil, fmt.Errorf("title exceeds maximum length of 200 characters")
	}
	if strings.TrimSpace(ownerEmail) == "" {
		return nil, fmt.Errorf("owner email is required")
	}
	if urgency == "" {
		urgency = vo.UrgencyMedium
	}
	if !urgency.IsValid() {
		return nil, fmt.Errorf("invalid urgency: %s", urgency)
	}

	now := biztime.NowUTC()
	return &Ticket{
		id:          id.New(),
		ownerEmail:  ownerEmail,
		title:       title,
		description: description,
		specialty:   specialty,
		tags:        normalizeTags(tags),
		urgency:     urgency,
		location:    location,
		status:      vo.StatusPending,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func ReconstructTicket(
	ticketID string,
	ownerEmail string,
	title string,
	description string,
	specialty string,
	tags []string,
	urgency vo.Urgency,
	location string,
	status vo.TicketStatus,
	discoveryResultID string,
	selectedVendorID string,
	selectedVendorQuoteID string,
	quoteStatus vo.QuoteStatus,
	scheduledDate *time.Time,
	embedding []float32,
	createdAt, updatedAt time.Time,
) (*Ticket, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	if !quoteStatus.IsValid() {
		return nil, fmt.Errorf("invalid quote status: %s", quoteStatus)
	}
	if tags == nil {
		tags = []string{}
	}

	return &Ticket{
		id:                    ticketID,
		ownerEmail:            ownerEmail,
		title:                 title,
		description:           description,
		specialty:             specialty,
		tags:                  tags,
		urgency:               urgency,
		location:              location,
		status:                status,
		discoveryResultID:     discoveryResultID,
		selectedVendorID:      selectedVendorID,
		selectedVendorQuoteID: selectedVendorQuoteID,
		quoteStatus:           quoteStatus,
		scheduledDate:         scheduledDate,
		embedding:             embedding,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
	}, nil
}

func (t *Ticket) ID() string {
	return t.id
}

func (t *Ticket) OwnerEmail() string {
	return t.ownerEmail
}

func (t *Ticket) Title() string {
	return t.title
}

func (t *Ticket) Description() string {
	return t.description
}

func (t *Ticket) Specialty() string {
	return t.specialty
}

func (t *Ticket) Urgency() vo.Urgency {
	return t.urgency
}

func (t *Ticket) Location() string {
	return t.location
}

func (t *Ticket) Status() vo.TicketStatus {
	return t.status
}

func (t *Ticket) DiscoveryResultID() string {
	return t.discoveryResultID
}

func (t *Ticket) SelectedVendorID() string {
	return t.selectedVendorID
}

func (t *Ticket) SelectedVendorQuoteID() string {
	return t.selectedVendorQuoteID
}

func (t *Ticket) QuoteStatus() vo.QuoteStatus {
	return t.quoteStatus
}

func (t *Ticket) ScheduledDate() *time.Time {
	return t.scheduledDate
}

func (t *Ticket) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Ticket) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Ticket) Tags() []string {
	tagsCopy := make([]string, len(t.tags))
	copy(tagsCopy, t.tags)
	return tagsCopy
}

func (t *Ticket) Embedding() []float32 {
	if len(t.embedding) == 0 {
		return nil
	}
	out := make([]float32, len(t.embedding))
	copy(out, t.embedding)
	return out
}

// AdvanceTo moves the ticket to status. Re-applying the current status is a
// no-op that reports changed=false.
func (t *Ticket) AdvanceTo(status vo.TicketStatus) (changed bool, err error) {
	if !status.IsValid() {
		return false, fmt.Errorf("invalid status: %s", status)
	}
	if t.status == status {
		return false, nil
	}
	if !t.status.CanTransitionTo(status) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.status, status)
	}

	t.status = status
	t.updatedAt = biztime.NowUTC()
	return true, nil
}

func (t *Ticket) AttachDiscoveryResult(resultID string) {
	if t.discoveryResultID == resultID {
		return
	}
	t.discoveryResultID = resultID
	t.updatedAt = biztime.NowUTC()
}

func (t *Ticket) CacheEmbedding(vector []float32) {
	t.embedding = make([]float32, len(vector))
	copy(t.embedding, vector)
	t.updatedAt = biztime.NowUTC()
}

// MarkAwaitingQuotes records that solicitations are going out.
func (t *Ticket) MarkAwaitingQuotes() (bool, error) {
	if t.quoteStatus == vo.QuoteStatusNone {
		t.quoteStatus = vo.QuoteStatusAwaiting
	}
	return t.AdvanceTo(vo.StatusRequestedForInformation)
}

// MarkQuoteReceived records a newly parsed quote. The quote status never goes
// back from selected.
func (t *Ticket) MarkQuoteReceived() (bool, error) {
	if t.quoteStatus != vo.QuoteStatusSelected {
		t.quoteStatus = vo.QuoteStatusReceived
	}
	return t.AdvanceTo(vo.StatusQuotesReceived)
}

// RecordSelection stores the winning quote. The ticket becomes scheduled when
// the quote carries a date, quotes_available otherwise.
func (t *Ticket) RecordSelection(vendorID, quoteID string, scheduledDate *time.Time) error {
	if vendorID == "" || quoteID == "" {
		return fmt.Errorf("vendor ID and quote ID are required")
	}

	target := vo.StatusQuotesAvailable
	if scheduledDate != nil {
		target = vo.StatusScheduled
	}
	if _, err := t.AdvanceTo(target); err != nil {
		return err
	}

	t.selectedVendorID = vendorID
	t.selectedVendorQuoteID = quoteID
	t.quoteStatus = vo.QuoteStatusSelected
	t.scheduledDate = scheduledDate
	t.updatedAt = biztime.NowUTC()
	return nil
}

// SearchText is the text the semantic fingerprint is computed from.
func (t *Ticket) SearchText() string {
	parts := []string{t.title, t.description, t.specialty}
	parts = append(parts, t.tags...)
	if t.location != "" {
		parts = append(parts, t.location)
	}
	return strings.TrimSpace(strings.Join(nonEmpty(parts), " "))
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func nonEmpty(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
