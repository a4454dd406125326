package usecases

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/vendor"
)

var sentAt = time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)

type scoringSet struct {
	quotes     []*quote.VendorQuote
	vendors    map[string]*vendor.Vendor
	outreaches map[string]*outreach.VendorOutreach
}

func newScoringSet() *scoringSet {
	return &scoringSet{
		vendors:    make(map[string]*vendor.Vendor),
		outreaches: make(map[string]*outreach.VendorOutreach),
	}
}

type quoteSpec struct {
	price        int64
	hours        int
	ratings      *float64
	vendorRating *float64
	respondAfter time.Duration
}

func (s *scoringSet) add(t *testing.T, name string, spec quoteSpec) *quote.VendorQuote {
	t.Helper()

	v, err := vendor.NewVendor(name, name+"@example.com", "", "plumbing", "", spec.vendorRating)
	require.NoError(t, err)
	o, err := outreach.NewVendorOutreach("tkt0000000000001", v.ID(), "email-"+name, sentAt, 72*time.Hour)
	require.NoError(t, err)
	q, err := quote.NewVendorQuote("tkt0000000000001", v.ID(), o.ID(), quote.Terms{
		Price:                 spec.price,
		Currency:              "USD",
		EstimatedDeliveryTime: spec.hours,
		Ratings:               spec.ratings,
	}, "quote from "+name, sentAt.Add(spec.respondAfter))
	require.NoError(t, err)

	s.vendors[v.ID()] = v
	s.outreaches[o.ID()] = o
	s.quotes = append(s.quotes, q)
	return q
}

func scoresByQuote(ranked []RankedQuote) map[string]float64 {
	out := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		out[r.Quote.ID()] = r.Score
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestScoreQuotes_SingleQuote(t *testing.T) {
	s := newScoringSet()
	s.add(t, "solo", quoteSpec{price: 50000, hours: 48, respondAfter: 24 * time.Hour})

	ranked := ScoreQuotes(s.quotes, s.vendors, s.outreaches)
	require.Len(t, ranked, 1)

	b := ranked[0].Breakdown
	assert.Equal(t, 0.5, b.Price)
	assert.Equal(t, 0.5, b.Delivery)
	assert.Equal(t, 0.5, b.Rating)
	assert.Equal(t, 0.5, b.VendorRating)
	assert.InDelta(t, 1-24.0/72.0, b.Response, 1e-9)
	assert.InDelta(t, 0.15+0.125+0.1+0.15*(1-24.0/72.0)+0.05, ranked[0].Score, 1e-9)
}

func TestScoreQuotes_Normalization(t *testing.T) {
	s := newScoringSet()
	cheap := s.add(t, "cheap", quoteSpec{price: 30000, hours: 72, ratings: floatPtr(5), vendorRating: floatPtr(4), respondAfter: time.Hour})
	pricey := s.add(t, "pricey", quoteSpec{price: 90000, hours: 24, respondAfter: 100 * time.Hour})
	mid := s.add(t, "mid", quoteSpec{price: 60000, hours: 48, respondAfter: 36 * time.Hour})

	ranked := ScoreQuotes(s.quotes, s.vendors, s.outreaches)
	byID := make(map[string]RankedQuote)
	for _, r := range ranked {
		byID[r.Quote.ID()] = r
	}

	assert.Equal(t, 1.0, byID[cheap.ID()].Breakdown.Price)
	assert.Equal(t, 0.0, byID[pricey.ID()].Breakdown.Price)
	assert.InDelta(t, 0.5, byID[mid.ID()].Breakdown.Price, 1e-9)

	assert.Equal(t, 0.0, byID[cheap.ID()].Breakdown.Delivery)
	assert.Equal(t, 1.0, byID[pricey.ID()].Breakdown.Delivery)

	assert.Equal(t, 1.0, byID[cheap.ID()].Breakdown.Rating)
	assert.InDelta(t, 0.8, byID[cheap.ID()].Breakdown.VendorRating, 1e-9)
	assert.Equal(t, 0.0, byID[pricey.ID()].Breakdown.Response)
	assert.InDelta(t, 0.5, byID[mid.ID()].Breakdown.Response, 1e-9)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	for _, r := range ranked {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestScoreQuotes_IdenticalPricesScoreHalf(t *testing.T) {
	s := newScoringSet()
	for _, name := range []string{"a", "b", "c"} {
		s.add(t, name, quoteSpec{price: 45000, hours: 24, respondAfter: 2 * time.Hour})
	}

	for _, r := range ScoreQuotes(s.quotes, s.vendors, s.outreaches) {
		assert.Equal(t, 0.5, r.Breakdown.Price)
		assert.Equal(t, 0.5, r.Breakdown.Delivery)
	}
}

func TestScoreQuotes_MissingRecordsScoreZero(t *testing.T) {
	s := newScoringSet()
	orphan := s.add(t, "orphan", quoteSpec{price: 20000, hours: 12, respondAfter: time.Hour})
	lost := s.add(t, "lost", quoteSpec{price: 100000, hours: 96, respondAfter: time.Hour})
	a := s.add(t, "a", quoteSpec{price: 40000, hours: 24, respondAfter: time.Hour})
	b := s.add(t, "b", quoteSpec{price: 80000, hours: 48, respondAfter: time.Hour})

	delete(s.vendors, orphan.VendorID())
	delete(s.outreaches, lost.VendorOutreachID())

	ranked := ScoreQuotes(s.quotes, s.vendors, s.outreaches)
	scores := scoresByQuote(ranked)
	assert.Equal(t, 0.0, scores[orphan.ID()])
	assert.Equal(t, 0.0, scores[lost.ID()])

	byID := make(map[string]RankedQuote)
	for _, r := range ranked {
		byID[r.Quote.ID()] = r
	}
	// Ranges span all four quotes: price 20000..100000, delivery 12..96 hours.
	assert.InDelta(t, 0.75, byID[a.ID()].Breakdown.Price, 1e-9)
	assert.InDelta(t, 0.25, byID[b.ID()].Breakdown.Price, 1e-9)
	assert.InDelta(t, 1-12.0/84, byID[a.ID()].Breakdown.Delivery, 1e-9)
	assert.InDelta(t, 1-36.0/84, byID[b.ID()].Breakdown.Delivery, 1e-9)
	assert.Equal(t, a.ID(), ranked[0].Quote.ID())
}

func TestScoreQuotes_OrderIndependent(t *testing.T) {
	s := newScoringSet()
	s.add(t, "a", quoteSpec{price: 30000, hours: 72, ratings: floatPtr(4.5), respondAfter: 5 * time.Hour})
	s.add(t, "b", quoteSpec{price: 52000, hours: 12, respondAfter: 30 * time.Hour})
	s.add(t, "c", quoteSpec{price: 41000, hours: 36, vendorRating: floatPtr(3.2), respondAfter: 80 * time.Hour})
	s.add(t, "d", quoteSpec{price: 41000, hours: 24, ratings: floatPtr(2), respondAfter: 10 * time.Minute})
	s.add(t, "e", quoteSpec{price: 99000, hours: 6, respondAfter: 71 * time.Hour})

	want := scoresByQuote(ScoreQuotes(s.quotes, s.vendors, s.outreaches))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]*quote.VendorQuote(nil), s.quotes...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := scoresByQuote(ScoreQuotes(shuffled, s.vendors, s.outreaches))
		require.Len(t, got, len(want))
		for quoteID, score := range want {
			assert.InDelta(t, score, got[quoteID], 1e-12)
		}
	}
}

func TestScoreQuotes_TiesKeepInputOrder(t *testing.T) {
	s := newScoringSet()
	first := s.add(t, "first", quoteSpec{price: 45000, hours: 24, respondAfter: time.Hour})
	second := s.add(t, "second", quoteSpec{price: 45000, hours: 24, respondAfter: time.Hour})

	ranked := ScoreQuotes(s.quotes, s.vendors, s.outreaches)
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, first.ID(), ranked[0].Quote.ID())
	assert.Equal(t, second.ID(), ranked[1].Quote.ID())
}
