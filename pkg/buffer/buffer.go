// Package buffer provides the fixed-capacity byte arena that holds the
// encoded samples of one recording episode between the trigger edges.
package buffer

const (
	// DefaultCapacity is the working buffer size. At 400 microseconds per
	// sample and 39 bytes per encoded line this holds about 86 seconds of
	// recording, far beyond any realistic cranking episode; wrapping during
	// a real episode indicates a stuck trigger.
	DefaultCapacity = 8 * 1024 * 1024
)

// Buffer is an append-only byte arena with an explicit write cursor. It is
// owned exclusively by the acquisition loop: appends happen only while
// recording, the content is read in full at episode end, and no other
// goroutine touches it, so it carries no lock.
//
// Overflow wraps the cursor to zero and keeps writing, losing the oldest
// bytes of the episode. The wrap is counted so callers can surface the data
// loss instead of discovering a truncated file later.
type Buffer struct {
	data      []byte
	cursor    int
	overflows uint64
}

// New creates a buffer with the given capacity in bytes.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the buffer capacity in bytes.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Len returns the current write cursor, which equals the number of valid
// bytes when the buffer has not wrapped.
func (b *Buffer) Len() int {
	return b.cursor
}

// Overflows returns the number of times an append wrapped the cursor back
// to zero since the last Reset.
func (b *Buffer) Overflows() uint64 {
	return b.overflows
}

// Reset discards all content and clears the overflow count. Called at the
// Idle->Recording transition so a new episode never inherits stale bytes.
func (b *Buffer) Reset() {
	b.cursor = 0
	b.overflows = 0
}

// Append copies p into the arena at the cursor and advances it, returning
// the number of bytes written. If p does not fit in the remaining space the
// cursor wraps to zero first and the write continues from the start of the
// arena, overwriting the oldest content.
func (b *Buffer) Append(p []byte) int {
	if len(p) > len(b.data) {
		p = p[:len(b.data)]
	}
	if b.cursor+len(p) > len(b.data) {
		b.cursor = 0
		b.overflows++
	}
	n := copy(b.data[b.cursor:], p)
	b.cursor += n
	return n
}

// Bytes returns the valid content, from the start of the arena up to the
// cursor. The slice aliases the arena; callers must finish with it before
// the next Append or Reset.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.cursor]
}
