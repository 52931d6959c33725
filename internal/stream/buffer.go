package stream

// Buffer is a byte accumulator with an explicit read cursor.
//
// Invariants: bytes before the cursor are dead and reclaimed on Append;
// Peek and Take index relative to the cursor; Take never exceeds Len.
type Buffer struct {
	buf []byte
	pos int
}

// Append adds raw bytes, compacting dead space first.
func (b *Buffer) Append(p []byte) {
	if b.pos > 0 {
		n := copy(b.buf, b.buf[b.pos:])
		b.buf = b.buf[:n]
		b.pos = 0
	}
	b.buf = append(b.buf, p...)
}

// Len reports the unread byte count.
func (b *Buffer) Len() int { return len(b.buf) - b.pos }

// Peek returns the unread byte at offset i. Callers must bound i by Len.
func (b *Buffer) Peek(i int) byte { return b.buf[b.pos+i] }

// Discard drops n unread bytes.
func (b *Buffer) Discard(n int) {
	if n > b.Len() {
		n = b.Len()
	}
	b.pos += n
}

// Take copies out and drops the next n unread bytes.
func (b *Buffer) Take(n int) []byte {
	if n > b.Len() {
		n = b.Len()
	}
	out := make([]byte, n)
	copy(out, b.buf[b.pos:b.pos+n])
	b.pos += n
	return out
}
