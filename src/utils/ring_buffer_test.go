package utils

import (
	"fmt"
	"testing"

	"quote-bridge/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer_WrapsAndKeepsOrder(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 1; i <= 5; i++ {
		rb.Append(models.MLogEntry{Message: fmt.Sprintf("m%d", i)})
	}

	assert.Equal(t, 3, rb.Size())
	latest := rb.GetLatest(10)
	require.Len(t, latest, 3)
	assert.Equal(t, "m3", latest[0].Message)
	assert.Equal(t, "m5", latest[2].Message)

	last := rb.GetLatest(1)
	require.Len(t, last, 1)
	assert.Equal(t, "m5", last[0].Message)
}

func TestRingBuffer_Empty(t *testing.T) {
	rb := NewRingBuffer(0)
	assert.Empty(t, rb.GetLatest(5))
	assert.Empty(t, rb.GetLatest(0))
}
