// Package vendormatcher defines the semantic vendor lookup port.
package vendormatcher

import "context"

// Match is a stored vendor ranked by similarity to a ticket.
type Match struct {
	VendorID string
	Score    float64
}

// VendorMatcher embeds ticket text and finds similar vendors in the vector index.
type VendorMatcher interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	FindSimilar(ctx context.Context, vector []float32, specialty string, limit int) ([]Match, error)
}
