package quoteparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteExtraction_Validate(t *testing.T) {
	price := int64(15000)
	zero := int64(0)
	hours := 48

	complete := &QuoteExtraction{HasQuote: true, Price: &price, EstimatedDeliveryTime: &hours}
	assert.NoError(t, complete.Validate(), "a scheduled date is optional")

	missingAll := &QuoteExtraction{HasQuote: true}
	err := missingAll.Validate()
	assert.ErrorIs(t, err, ErrMissingPrice)
	assert.ErrorIs(t, err, ErrMissingDelivery)

	zeroPrice := &QuoteExtraction{HasQuote: true, Price: &zero, EstimatedDeliveryTime: &hours}
	err = zeroPrice.Validate()
	assert.ErrorIs(t, err, ErrMissingPrice)
	assert.NotErrorIs(t, err, ErrMissingDelivery)
}
