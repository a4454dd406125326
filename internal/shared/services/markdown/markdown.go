// Package markdown renders outbound email bodies. Every body leaving the
// service passes through Sanitize.
package markdown

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	htmlTagPattern   = regexp.MustCompile(`(?i)<(p|div|br|table|ul|ol|h[1-6]|html|body|span|strong|em|a)\b[^>]*>`)
	lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|tr|h[1-6])>`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
)

type Service interface {
	ToHTML(markdown string) (string, error)
	Sanitize(htmlContent string) string
	// EnsureHTML returns body as sanitized HTML, rendering it from markdown when
	// it is not already HTML. An empty result means the body had no content.
	EnsureHTML(body string) string
	// PlainText strips all markup from an HTML body, keeping line breaks.
	PlainText(htmlContent string) string
}

type service struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewService() Service {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("style").OnElements("p", "div", "span", "td", "th", "table")

	return &service{
		md:     md,
		policy: policy,
		strict: bluemonday.StrictPolicy(),
	}
}

// IsHTML reports whether body contains at least one common block or inline tag.
func IsHTML(body string) bool {
	return htmlTagPattern.MatchString(body)
}

func (s *service) ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

func (s *service) Sanitize(htmlContent string) string {
	return s.policy.Sanitize(htmlContent)
}

func (s *service) EnsureHTML(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if IsHTML(body) {
		return strings.TrimSpace(s.Sanitize(body))
	}
	rendered, err := s.ToHTML(body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s.Sanitize(rendered))
}

func (s *service) PlainText(htmlContent string) string {
	text := lineBreakPattern.ReplaceAllString(htmlContent, "\n")
	text = stdhtml.UnescapeString(s.strict.Sanitize(text))
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(blankRunPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
