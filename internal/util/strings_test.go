package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"ops@example.com", "a.b@sub.domain.org", "x+tag@host.io"}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}

	invalid := []string{"", "no-at.example.com", "two@@host.com", "user@nodot", "spa ce@host.com"}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestTrimDedup(t *testing.T) {
	got := TrimDedup([]string{" licitação ", "edital", "licitação", "", "  ", "edital "})
	assert.Equal(t, []string{"licitação", "edital"}, got)

	assert.Empty(t, TrimDedup(nil))
	assert.Empty(t, TrimDedup([]string{"", "   "}))
}
