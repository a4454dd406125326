package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"

	"vendorflow/internal/application/reply/quoteparser"
)

const quoteSystemPrompt = `You read replies from maintenance vendors to a quote request.
Decide whether the reply contains a quote, declines the job, or neither.
Prices are decimal amounts in the stated currency, for example 249.99 for $249.99. Convert any stated turnaround into hours for estimated_delivery_time and fix_duration.
Use null for anything the vendor did not state. Never guess a price.`

var quoteSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required": []string{
		"has_quote", "price", "currency", "estimated_delivery_time", "scheduled_date",
		"fix_duration", "ratings", "notes", "is_declining", "decline_reason",
	},
	"properties": map[string]any{
		"has_quote":               map[string]any{"type": "boolean"},
		"price":                   map[string]any{"type": []string{"number", "null"}},
		"currency":                map[string]any{"type": []string{"string", "null"}},
		"estimated_delivery_time": map[string]any{"type": []string{"integer", "null"}},
		"scheduled_date":          map[string]any{"type": []string{"string", "null"}},
		"fix_duration":            map[string]any{"type": []string{"integer", "null"}},
		"ratings":                 map[string]any{"type": []string{"number", "null"}},
		"notes":                   map[string]any{"type": []string{"string", "null"}},
		"is_declining":            map[string]any{"type": "boolean"},
		"decline_reason":          map[string]any{"type": []string{"string", "null"}},
	},
}

type quoteOutput struct {
	HasQuote              bool     `json:"has_quote"`
	Price                 *float64 `json:"price"`
	Currency              *string  `json:"currency"`
	EstimatedDeliveryTime *float64 `json:"estimated_delivery_time"`
	ScheduledDate         *string  `json:"scheduled_date"`
	FixDuration           *float64 `json:"fix_duration"`
	Ratings               *float64 `json:"ratings"`
	Notes                 *string  `json:"notes"`
	IsDeclining           bool     `json:"is_declining"`
	DeclineReason         *string  `json:"decline_reason"`
}

// QuoteParser implements quoteparser.QuoteParser.
type QuoteParser struct {
	client *Client
}

var _ quoteparser.QuoteParser = (*QuoteParser)(nil)

func NewQuoteParser(client *Client) *QuoteParser {
	return &QuoteParser{client: client}
}

func (p *QuoteParser) Parse(ctx context.Context, req quoteparser.ParseRequest) (*quoteparser.QuoteExtraction, error) {
	user := fmt.Sprintf("Job: %s\nVendor: %s\nSubject: %s\n\nReply:\n%s",
		req.TicketTitle, req.VendorName, req.Subject, req.Body)

	var out quoteOutput
	if err := p.client.completeJSON(ctx, quoteSystemPrompt, user, "vendor_quote", quoteSchema, &out); err != nil {
		return nil, err
	}
	return out.toExtraction(), nil
}

func (o quoteOutput) toExtraction() *quoteparser.QuoteExtraction {
	code := strings.ToUpper(deref(o.Currency))
	return &quoteparser.QuoteExtraction{
		HasQuote:              o.HasQuote,
		Price:                 toMinorUnits(o.Price, code),
		Currency:              code,
		EstimatedDeliveryTime: roundInt(o.EstimatedDeliveryTime),
		ScheduledDate:         deref(o.ScheduledDate),
		FixDuration:           roundInt(o.FixDuration),
		Ratings:               o.Ratings,
		Notes:                 deref(o.Notes),
		IsDeclining:           o.IsDeclining,
		DeclineReason:         deref(o.DeclineReason),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// toMinorUnits converts a decimal amount to the currency's smallest unit.
// Unknown or missing currencies are treated as USD.
func toMinorUnits(amount *float64, code string) *int64 {
	if amount == nil {
		return nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	scale, _ := currency.Standard.Rounding(unit)
	v := int64(math.Round(*amount * math.Pow10(scale)))
	return &v
}

func roundInt(f *float64) *int {
	if f == nil {
		return nil
	}
	v := int(*f + 0.5)
	return &v
}
