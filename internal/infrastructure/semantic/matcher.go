// Package semantic finds stored vendors similar to a ticket using an
// embeddings endpoint and a Qdrant collection.
package semantic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vendorflow/internal/application/discovery/vendormatcher"
	"vendorflow/internal/infrastructure/httpclient"
	"vendorflow/internal/shared/config"
)

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type matchValue struct {
	Value string `json:"value"`
}

type fieldCondition struct {
	Key   string     `json:"key"`
	Match matchValue `json:"match"`
}

type searchFilter struct {
	Must []fieldCondition `json:"must"`
}

type searchRequest struct {
	Vector         []float32     `json:"vector"`
	Limit          int           `json:"limit"`
	WithPayload    bool          `json:"with_payload"`
	ScoreThreshold float64       `json:"score_threshold,omitempty"`
	Filter         *searchFilter `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Matcher implements vendormatcher.VendorMatcher.
type Matcher struct {
	embeddings *httpclient.Client
	vectors    *httpclient.Client
	model      string
	collection string
	minScore   float64
	limit      int
}

var _ vendormatcher.VendorMatcher = (*Matcher)(nil)

func NewMatcher(cfg *config.SemanticConfig) *Matcher {
	headers := map[string]string{}
	if cfg.VectorAPIKey != "" {
		headers["api-key"] = cfg.VectorAPIKey
	}

	return &Matcher{
		embeddings: httpclient.New(httpclient.Options{
			Name:    "embeddings",
			BaseURL: cfg.EmbeddingBaseURL,
			APIKey:  cfg.EmbeddingAPIKey,
		}),
		vectors: httpclient.New(httpclient.Options{
			Name:    "qdrant",
			BaseURL: cfg.VectorBaseURL,
			Headers: headers,
		}),
		model:      cfg.EmbeddingModel,
		collection: cfg.Collection,
		minScore:   cfg.MinScore,
		limit:      cfg.Limit,
	}
}

func (m *Matcher) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	if err := m.embeddings.DoJSON(ctx, http.MethodPost, "/embeddings", embeddingRequest{Model: m.model, Input: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings: response has no vector")
	}
	return resp.Data[0].Embedding, nil
}

// FindSimilar searches the collection, restricted to specialty when one is
// given. Hits below the minimum score or without a vendor id are dropped.
func (m *Matcher) FindSimilar(ctx context.Context, vector []float32, specialty string, limit int) ([]vendormatcher.Match, error) {
	if limit <= 0 {
		limit = m.limit
	}
	req := searchRequest{
		Vector:         vector,
		Limit:          limit,
		WithPayload:    true,
		ScoreThreshold: m.minScore,
	}
	if specialty = strings.ToLower(strings.TrimSpace(specialty)); specialty != "" {
		req.Filter = &searchFilter{Must: []fieldCondition{{Key: "specialty", Match: matchValue{Value: specialty}}}}
	}

	var resp searchResponse
	path := "/collections/" + url.PathEscape(m.collection) + "/points/search"
	if err := m.vectors.DoJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	matches := make([]vendormatcher.Match, 0, len(resp.Result))
	for _, hit := range resp.Result {
		if hit.Score < m.minScore {
			continue
		}
		vendorID, _ := hit.Payload["vendor_id"].(string)
		if vendorID == "" {
			continue
		}
		matches = append(matches, vendormatcher.Match{VendorID: vendorID, Score: hit.Score})
	}
	return matches, nil
}
