package gst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatGSTIN(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"valid", "27AAPFU0939F1ZV", "27AAPFU0939F1ZV", true},
		{"spaces and lower case", "27aapfu 0939f1zv", "27AAPFU0939F1ZV", true},
		{"too short", "27AAPFU0939F1Z", "", false},
		{"punctuation", "27AAPFU0939F1Z-", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatGSTIN(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
