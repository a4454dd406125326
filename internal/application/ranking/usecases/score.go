package usecases

import (
	"math"
	"sort"

	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/vendor"
)

const (
	weightPrice        = 0.30
	weightDelivery     = 0.25
	weightRating       = 0.20
	weightResponse     = 0.15
	weightVendorRating = 0.10

	responseWindowHours = 72.0
	neutralScore        = 0.5
)

// ScoreBreakdown holds the weighted components of one quote's score.
type ScoreBreakdown struct {
	Price        float64 `json:"price"`
	Delivery     float64 `json:"delivery"`
	Rating       float64 `json:"rating"`
	Response     float64 `json:"response"`
	VendorRating float64 `json:"vendor_rating"`
}

type RankedQuote struct {
	Quote     *quote.VendorQuote
	Vendor    *vendor.Vendor
	Score     float64
	Breakdown ScoreBreakdown
}

// ScoreQuotes scores every quote against the others in the set and returns
// them highest first. Price and delivery ranges span the whole set. Quotes
// whose vendor or outreach is missing still shape those ranges but score 0.
// Ties keep input order.
func ScoreQuotes(
	quotes []*quote.VendorQuote,
	vendors map[string]*vendor.Vendor,
	outreaches map[string]*outreach.VendorOutreach,
) []RankedQuote {
	prices := newRange(quotes, func(q *quote.VendorQuote) float64 { return float64(q.Price()) })
	delivery := newRange(quotes, func(q *quote.VendorQuote) float64 { return float64(q.EstimatedDeliveryTime()) })

	ranked := make([]RankedQuote, 0, len(quotes))
	for _, q := range quotes {
		v := vendors[q.VendorID()]
		o := outreaches[q.VendorOutreachID()]
		if v == nil || o == nil {
			ranked = append(ranked, RankedQuote{Quote: q, Vendor: v})
			continue
		}

		b := ScoreBreakdown{
			Price:        prices.lowerIsBetter(float64(q.Price())),
			Delivery:     delivery.lowerIsBetter(float64(q.EstimatedDeliveryTime())),
			Rating:       fiveStar(q.Ratings()),
			Response:     responseScore(q, o),
			VendorRating: fiveStar(v.Rating()),
		}
		ranked = append(ranked, RankedQuote{
			Quote:     q,
			Vendor:    v,
			Score:     total(b),
			Breakdown: b,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func total(b ScoreBreakdown) float64 {
	return weightPrice*b.Price +
		weightDelivery*b.Delivery +
		weightRating*b.Rating +
		weightResponse*b.Response +
		weightVendorRating*b.VendorRating
}

type valueRange struct {
	min, max float64
}

func newRange(quotes []*quote.VendorQuote, value func(*quote.VendorQuote) float64) valueRange {
	r := valueRange{min: math.Inf(1), max: math.Inf(-1)}
	for _, q := range quotes {
		v := value(q)
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	return r
}

func (r valueRange) lowerIsBetter(v float64) float64 {
	span := r.max - r.min
	if span <= 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		return neutralScore
	}
	return 1 - (v-r.min)/span
}

func fiveStar(rating *float64) float64 {
	if rating == nil {
		return neutralScore
	}
	return *rating / 5
}

func responseScore(q *quote.VendorQuote, o *outreach.VendorOutreach) float64 {
	receivedAt := q.ResponseReceivedAt()
	if receivedAt == nil {
		return 0
	}
	hours := math.Max(0, o.ResponseHours(*receivedAt))
	return math.Max(0, 1-hours/responseWindowHours)
}
