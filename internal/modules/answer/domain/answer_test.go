package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords(" \t\n"))
	assert.Equal(t, 1, CountWords("yes"))
	assert.Equal(t, 3, CountWords("  no\tway \n jose "))
	assert.Equal(t, MaxWords, CountWords("one two three four five six seven eight nine ten"))
}
