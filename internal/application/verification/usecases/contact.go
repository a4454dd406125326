package usecases

import (
	"regexp"
	"strings"

	"vendorflow/internal/shared/utils"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ContactExtraction is the contact detail read from a call transcript.
type ContactExtraction struct {
	Email       string
	Confidence  Confidence
	ContactName string
	Department  string
}

var (
	emailPattern       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	contactNamePattern = regexp.MustCompile(`\b(?i:my name is|this is|ask for|speak with)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
	departmentPattern  = regexp.MustCompile(`(?i)\b(sales|service|estimating|estimates|dispatch|scheduling|billing|customer service)\s+(?:department|team|desk|office)`)
)

var roleHints = []string{"sales", "quote", "estimate", "service", "contact"}

// ExtractContact picks the best email mentioned in a transcript. A role
// address such as sales@ or quotes@ is high confidence, any other address is
// medium, and a transcript with no address is low confidence with no email.
// info@ addresses are used only when nothing else was said.
func ExtractContact(transcript string) ContactExtraction {
	result := ContactExtraction{
		Confidence:  ConfidenceLow,
		ContactName: matchGroup(contactNamePattern, transcript),
		Department:  strings.ToLower(matchGroup(departmentPattern, transcript)),
	}

	var fallback, infoAddress string
	for _, candidate := range emailPattern.FindAllString(transcript, -1) {
		email := strings.ToLower(strings.TrimRight(candidate, "."))
		if !utils.IsEmail(email) {
			continue
		}
		local := email[:strings.IndexByte(email, '@')]
		if local == "info" {
			if infoAddress == "" {
				infoAddress = email
			}
			continue
		}
		if hasRoleHint(local) {
			result.Email = email
			result.Confidence = ConfidenceHigh
			return result
		}
		if fallback == "" {
			fallback = email
		}
	}

	switch {
	case fallback != "":
		result.Email = fallback
		result.Confidence = ConfidenceMedium
	case infoAddress != "":
		result.Email = infoAddress
		result.Confidence = ConfidenceMedium
	}
	return result
}

func hasRoleHint(local string) bool {
	for _, hint := range roleHints {
		if strings.Contains(local, hint) {
			return true
		}
	}
	return false
}

func matchGroup(pattern *regexp.Regexp, s string) string {
	m := pattern.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
