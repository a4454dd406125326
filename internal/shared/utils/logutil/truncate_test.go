package logutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "empty string", input: "", maxLen: 10, expected: ""},
		{name: "zero max length", input: "hello", maxLen: 0, expected: "..."},
		{name: "shorter than max", input: "hello", maxLen: 10, expected: "hello"},
		{name: "equal to max", input: "hello", maxLen: 5, expected: "hello"},
		{name: "longer than max", input: "hello world", maxLen: 5, expected: "hello..."},
		{name: "whitespace collapsed", input: "Hi,\n\n  thanks   for\tcalling", maxLen: 100, expected: "Hi, thanks for calling"},
		{name: "multibyte runes kept whole", input: "préstamo rápido", maxLen: 3, expected: "pré..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Excerpt(tt.input, tt.maxLen))
		})
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "s***@acme.com", MaskEmail("sales@acme.com"))
	assert.Equal(t, "not...", MaskEmail("not-an-email"))
	assert.Equal(t, "", MaskEmail(""))
}
