package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"(732) 733-2541", "+17327332541"},
		{"732-733-2541", "+17327332541"},
		{"+17327332541", "+17327332541"},
		{"1 732 733 2541", "+17327332541"},
		{"732.733.2541", "+17327332541"},
		{"12345", ""},
		{"", ""},
		{"+44 20 7946 0958", ""},
		{"(132) 733-2541", ""},
		{"(732) 133-2541", ""},
		{"732-733-2541 ext 12", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw))
		})
	}
}
