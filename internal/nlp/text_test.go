package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	got := Words("Hello, world! Prices rose 3% in France.")
	assert.Equal(t, []string{"Hello", "world", "Prices", "rose", "3", "in", "France"}, got)
}

func TestStripStopwords(t *testing.T) {
	got := StripStopwords("The election in Kenya was the biggest story of the week.")
	assert.Equal(t, "election Kenya biggest story week", got)
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("The"))
	assert.True(t, IsStopword("and"))
	assert.False(t, IsStopword("economy"))
}
