// Package testutil provides in-memory repositories and port fakes for testing
// the application layer.
package testutil

import (
	"context"
	"sync"
	"time"

	"vendorflow/internal/domain/calllog"
	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/ticket"
	"vendorflow/internal/domain/vendor"
)

// MockTicketRepository is an in-memory ticket.Repository.
type MockTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*ticket.Ticket
	updates int

	// Error injection for testing
	getError    error
	saveError   error
	updateError error
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{
		tickets: make(map[string]*ticket.Ticket),
	}
}

func (m *MockTicketRepository) GetByID(ctx context.Context, ticketID string) (*ticket.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.tickets[ticketID], nil
}

func (m *MockTicketRepository) Save(ctx context.Context, t *ticket.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveError != nil {
		return m.saveError
	}
	m.tickets[t.ID()] = t
	return nil
}

func (m *MockTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	m.tickets[t.ID()] = t
	m.updates++
	return nil
}

// AddTicket stores a ticket directly.
func (m *MockTicketRepository) AddTicket(t *ticket.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[t.ID()] = t
}

// UpdateCount returns how many times Update succeeded.
func (m *MockTicketRepository) UpdateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updates
}

func (m *MockTicketRepository) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

func (m *MockTicketRepository) SetUpdateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateError = err
}

// MockConversationRepository is an in-memory ticket.ConversationRepository.
type MockConversationRepository struct {
	mu       sync.RWMutex
	messages []*ticket.ConversationMessage

	appendError error
}

func NewMockConversationRepository() *MockConversationRepository {
	return &MockConversationRepository{}
}

func (m *MockConversationRepository) Append(ctx context.Context, message *ticket.ConversationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.appendError != nil {
		return m.appendError
	}
	m.messages = append(m.messages, message)
	return nil
}

func (m *MockConversationRepository) ListByTicket(ctx context.Context, ticketID string) ([]*ticket.ConversationMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*ticket.ConversationMessage
	for _, msg := range m.messages {
		if msg.TicketID() == ticketID {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (m *MockConversationRepository) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendError = err
}

// MockVendorRepository is an in-memory vendor.Repository.
type MockVendorRepository struct {
	mu      sync.RWMutex
	vendors map[string]*vendor.Vendor

	getError    error
	saveError   error
	updateError error
}

func NewMockVendorRepository() *MockVendorRepository {
	return &MockVendorRepository{
		vendors: make(map[string]*vendor.Vendor),
	}
}

func (m *MockVendorRepository) GetByID(ctx context.Context, vendorID string) (*vendor.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.vendors[vendorID], nil
}

func (m *MockVendorRepository) GetByIDs(ctx context.Context, vendorIDs []string) (map[string]*vendor.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	result := make(map[string]*vendor.Vendor, len(vendorIDs))
	for _, vendorID := range vendorIDs {
		if v, ok := m.vendors[vendorID]; ok {
			result[vendorID] = v
		}
	}
	return result, nil
}

func (m *MockVendorRepository) GetByEmail(ctx context.Context, email string) (*vendor.Vendor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	for _, v := range m.vendors {
		if v.Email() == email {
			return v, nil
		}
	}
	return nil, nil
}

func (m *MockVendorRepository) Save(ctx context.Context, v *vendor.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveError != nil {
		return m.saveError
	}
	m.vendors[v.ID()] = v
	return nil
}

func (m *MockVendorRepository) Update(ctx context.Context, v *vendor.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	m.vendors[v.ID()] = v
	return nil
}

func (m *MockVendorRepository) AddVendor(v *vendor.Vendor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendors[v.ID()] = v
}

// Count returns the number of stored vendors.
func (m *MockVendorRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vendors)
}

func (m *MockVendorRepository) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

// MockDiscoveryRepository is an in-memory discovery.Repository. It records the
// candidate count at every Update so tests can assert incremental persistence.
type MockDiscoveryRepository struct {
	mu           sync.RWMutex
	results      map[string]*discovery.DiscoveryResult
	updateCounts []int

	saveError   error
	updateError error
}

func NewMockDiscoveryRepository() *MockDiscoveryRepository {
	return &MockDiscoveryRepository{
		results: make(map[string]*discovery.DiscoveryResult),
	}
}

func (m *MockDiscoveryRepository) GetByID(ctx context.Context, resultID string) (*discovery.DiscoveryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.results[resultID], nil
}

func (m *MockDiscoveryRepository) Save(ctx context.Context, r *discovery.DiscoveryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveError != nil {
		return m.saveError
	}
	m.results[r.ID()] = r
	return nil
}

func (m *MockDiscoveryRepository) Update(ctx context.Context, r *discovery.DiscoveryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	m.results[r.ID()] = r
	m.updateCounts = append(m.updateCounts, r.Len())
	return nil
}

func (m *MockDiscoveryRepository) AddResult(r *discovery.DiscoveryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.ID()] = r
}

// UpdateCandidateCounts returns the candidate count seen by each Update call.
func (m *MockDiscoveryRepository) UpdateCandidateCounts() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.updateCounts...)
}

// MockOutreachRepository is an in-memory outreach.Repository.
type MockOutreachRepository struct {
	mu      sync.RWMutex
	records map[string]*outreach.VendorOutreach
	order   []string
	saveErr error
	findErr error
}

func NewMockOutreachRepository() *MockOutreachRepository {
	return &MockOutreachRepository{
		records: make(map[string]*outreach.VendorOutreach),
	}
}

func (m *MockOutreachRepository) GetByID(ctx context.Context, outreachID string) (*outreach.VendorOutreach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[outreachID], nil
}

func (m *MockOutreachRepository) GetByIDs(ctx context.Context, outreachIDs []string) (map[string]*outreach.VendorOutreach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*outreach.VendorOutreach, len(outreachIDs))
	for _, outreachID := range outreachIDs {
		if o, ok := m.records[outreachID]; ok {
			result[outreachID] = o
		}
	}
	return result, nil
}

func (m *MockOutreachRepository) FindActive(ctx context.Context, ticketID, vendorID string) (*outreach.VendorOutreach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	var found *outreach.VendorOutreach
	for _, outreachID := range m.order {
		o := m.records[outreachID]
		if o.TicketID() == ticketID && o.VendorID() == vendorID && o.IsActive() {
			found = o
		}
	}
	return found, nil
}

func (m *MockOutreachRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*outreach.VendorOutreach, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*outreach.VendorOutreach
	for _, outreachID := range m.order {
		o := m.records[outreachID]
		if o.Status() == outreach.StatusSent && !o.ExpiresAt().After(now) {
			result = append(result, o)
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MockOutreachRepository) Save(ctx context.Context, o *outreach.VendorOutreach) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	if _, exists := m.records[o.ID()]; !exists {
		m.order = append(m.order, o.ID())
	}
	m.records[o.ID()] = o
	return nil
}

func (m *MockOutreachRepository) Update(ctx context.Context, o *outreach.VendorOutreach) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[o.ID()] = o
	return nil
}

// All returns outreach records in save order.
func (m *MockOutreachRepository) All() []*outreach.VendorOutreach {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*outreach.VendorOutreach, 0, len(m.order))
	for _, outreachID := range m.order {
		result = append(result, m.records[outreachID])
	}
	return result
}

func (m *MockOutreachRepository) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// MockEmailMappingRepository is an in-memory outreach.EmailMappingRepository.
type MockEmailMappingRepository struct {
	mu       sync.RWMutex
	mappings map[string]*outreach.EmailMapping
}

func NewMockEmailMappingRepository() *MockEmailMappingRepository {
	return &MockEmailMappingRepository{
		mappings: make(map[string]*outreach.EmailMapping),
	}
}

func (m *MockEmailMappingRepository) GetByEmailID(ctx context.Context, emailID string) (*outreach.EmailMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mappings[emailID], nil
}

func (m *MockEmailMappingRepository) GetByMessageID(ctx context.Context, messageID string) (*outreach.EmailMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mapping := range m.mappings {
		if mapping.MessageID() == messageID {
			return mapping, nil
		}
	}
	return nil, nil
}

func (m *MockEmailMappingRepository) Save(ctx context.Context, mapping *outreach.EmailMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[mapping.EmailID()] = mapping
	return nil
}

func (m *MockEmailMappingRepository) Update(ctx context.Context, mapping *outreach.EmailMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[mapping.EmailID()] = mapping
	return nil
}

func (m *MockEmailMappingRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mappings)
}

// MockQuoteRepository is an in-memory quote.Repository that keeps creation order.
type MockQuoteRepository struct {
	mu     sync.RWMutex
	quotes map[string]*quote.VendorQuote
	order  []string

	updateError error
}

func NewMockQuoteRepository() *MockQuoteRepository {
	return &MockQuoteRepository{
		quotes: make(map[string]*quote.VendorQuote),
	}
}

func (m *MockQuoteRepository) GetByID(ctx context.Context, quoteID string) (*quote.VendorQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quotes[quoteID], nil
}

func (m *MockQuoteRepository) ListByTicket(ctx context.Context, ticketID string) ([]*quote.VendorQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*quote.VendorQuote
	for _, quoteID := range m.order {
		if q := m.quotes[quoteID]; q.TicketID() == ticketID {
			result = append(result, q)
		}
	}
	return result, nil
}

func (m *MockQuoteRepository) Save(ctx context.Context, q *quote.VendorQuote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.quotes[q.ID()]; !exists {
		m.order = append(m.order, q.ID())
	}
	m.quotes[q.ID()] = q
	return nil
}

func (m *MockQuoteRepository) Update(ctx context.Context, q *quote.VendorQuote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	m.quotes[q.ID()] = q
	return nil
}

func (m *MockQuoteRepository) UpdateScores(ctx context.Context, scores map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	for quoteID, score := range scores {
		if q, ok := m.quotes[quoteID]; ok {
			q.SetScore(score)
		}
	}
	return nil
}

func (m *MockQuoteRepository) ListReceivedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*quote.VendorQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*quote.VendorQuote
	for _, quoteID := range m.order {
		q := m.quotes[quoteID]
		at := q.ResponseReceivedAt()
		if q.Status() != quote.StatusReceived || at == nil || !at.Before(cutoff) {
			continue
		}
		result = append(result, q)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockQuoteRepository) SetUpdateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateError = err
}

// MockCallLogRepository is an in-memory calllog.Repository.
type MockCallLogRepository struct {
	mu    sync.RWMutex
	logs  map[string]*calllog.VendorCallLog
	order []string
}

func NewMockCallLogRepository() *MockCallLogRepository {
	return &MockCallLogRepository{
		logs: make(map[string]*calllog.VendorCallLog),
	}
}

func (m *MockCallLogRepository) GetByCallID(ctx context.Context, callID string) (*calllog.VendorCallLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logs[callID], nil
}

func (m *MockCallLogRepository) ListPending(ctx context.Context, limit int) ([]*calllog.VendorCallLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*calllog.VendorCallLog
	for _, callID := range m.order {
		if l := m.logs[callID]; l.IsPending() {
			result = append(result, l)
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MockCallLogRepository) Save(ctx context.Context, l *calllog.VendorCallLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.logs[l.CallID()]; !exists {
		m.order = append(m.order, l.CallID())
	}
	m.logs[l.CallID()] = l
	return nil
}

func (m *MockCallLogRepository) Update(ctx context.Context, l *calllog.VendorCallLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[l.CallID()] = l
	return nil
}
