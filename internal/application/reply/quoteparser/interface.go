// Package quoteparser defines the port that turns a vendor reply into quote terms.
package quoteparser

import (
	"context"
	"errors"
)

var (
	ErrMissingPrice    = errors.New("quote has no positive price")
	ErrMissingDelivery = errors.New("quote has no positive delivery time")
)

// ParseRequest is the reply to analyze plus the context it answers.
type ParseRequest struct {
	Subject     string
	Body        string
	VendorName  string
	TicketTitle string
}

// QuoteExtraction is what the parser found in a reply. Pointer fields are nil
// when the reply did not state them.
type QuoteExtraction struct {
	HasQuote              bool
	Price                 *int64
	Currency              string
	EstimatedDeliveryTime *int
	ScheduledDate         string
	FixDuration           *int
	Ratings               *float64
	Notes                 string
	IsDeclining           bool
	DeclineReason         string
}

// Validate applies the completeness rule: a quote needs a positive price and a
// positive delivery time in hours.
func (q *QuoteExtraction) Validate() error {
	var errs []error
	if q.Price == nil || *q.Price <= 0 {
		errs = append(errs, ErrMissingPrice)
	}
	if q.EstimatedDeliveryTime == nil || *q.EstimatedDeliveryTime <= 0 {
		errs = append(errs, ErrMissingDelivery)
	}
	return errors.Join(errs...)
}

type QuoteParser interface {
	Parse(ctx context.Context, req ParseRequest) (*QuoteExtraction, error)
}
