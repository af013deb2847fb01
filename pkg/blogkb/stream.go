package blogkb

import (
	"errors"
	"strings"
	"sync"
)

// ErrStreamClosed is returned when a delta arrives after the stream was
// completed or cancelled.
var ErrStreamClosed = errors.New("stream closed")

// Accumulator collects the text deltas of a streamed reply. The final text
// is only available once the stream has completed; cancelling discards
// whatever was collected.
type Accumulator struct {
	mu        sync.Mutex
	buf       strings.Builder
	completed bool
	cancelled bool
}

// NewAccumulator returns an empty, open accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Write appends a delta.
func (a *Accumulator) Write(delta string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.completed || a.cancelled {
		return ErrStreamClosed
	}
	a.buf.WriteString(delta)
	return nil
}

// Complete marks the stream finished. It has no effect after Cancel.
func (a *Accumulator) Complete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.cancelled {
		a.completed = true
	}
}

// Cancel closes the stream and drops the partial text.
func (a *Accumulator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.completed {
		return
	}
	a.cancelled = true
	a.buf.Reset()
}

// Final returns the accumulated text and true once the stream completed.
func (a *Accumulator) Final() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.completed {
		return "", false
	}
	return a.buf.String(), true
}
