package utils

import (
	"sync"

	"quote-bridge/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of log entries.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type RingBuffer struct {
	mu       sync.RWMutex
	data     []models.MLogEntry
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 500
	}

	return &RingBuffer{
		data:     make([]models.MLogEntry, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds an entry, overwriting the oldest once full
func (rb *RingBuffer) Append(entry models.MLogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.index] = entry
	rb.index = (rb.index + 1) % rb.capacity

	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n latest entries, oldest first
func (rb *RingBuffer) GetLatest(n int) []models.MLogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.size == 0 || n <= 0 {
		return []models.MLogEntry{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MLogEntry, count)

	// Latest entry sits at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns the current number of entries
func (rb *RingBuffer) Size() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}
