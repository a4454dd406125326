package email

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerWebhookID        = "svix-id"
	headerWebhookTimestamp = "svix-timestamp"
	headerWebhookSignature = "svix-signature"

	signatureTolerance = 5 * time.Minute
	secretPrefix       = "whsec_"
)

var (
	ErrMissingSignature = errors.New("webhook signature headers missing")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	ErrStaleSignature   = errors.New("webhook timestamp outside tolerance")
)

// DeliveryID returns the provider's id for a webhook delivery.
func DeliveryID(h http.Header) string {
	return h.Get(headerWebhookID)
}

// VerifySignature checks the Svix-style signature of a webhook: base64
// HMAC-SHA256 over "<id>.<timestamp>.<body>" keyed with the decoded secret.
func VerifySignature(secret string, h http.Header, body []byte, now time.Time) error {
	msgID := h.Get(headerWebhookID)
	ts := h.Get(headerWebhookTimestamp)
	sigHeader := h.Get(headerWebhookSignature)
	if msgID == "" || ts == "" || sigHeader == "" {
		return ErrMissingSignature
	}

	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	sent := time.Unix(seconds, 0)
	if now.Sub(sent) > signatureTolerance || sent.Sub(now) > signatureTolerance {
		return ErrStaleSignature
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return err
	}
	expected := Sign(key, msgID, ts, body)

	for _, part := range strings.Fields(sigHeader) {
		version, sig, ok := strings.Cut(part, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the v1 signature value.
func Sign(key []byte, msgID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func decodeSecret(secret string) ([]byte, error) {
	raw := strings.TrimPrefix(secret, secretPrefix)
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.New("webhook secret is not valid base64")
	}
	return key, nil
}
