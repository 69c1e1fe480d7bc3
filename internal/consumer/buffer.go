package consumer

import stderrors "errors"

// ErrBufferExhausted is returned when a record arrives after the rolling
// buffer has reached its capacity or the run's acceptance limit.
var ErrBufferExhausted = stderrors.New("rolling buffer exhausted")

// Buffer is an append-only sequence with a capacity fixed at allocation.
type Buffer struct {
	data []float64
}

// NewBuffer allocates a buffer that holds at most capacity values.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]float64, 0, capacity)}
}

// Append adds v, failing once the buffer is full. The buffer never grows.
func (b *Buffer) Append(v float64) error {
	if len(b.data) == cap(b.data) {
		return ErrBufferExhausted
	}
	b.data = append(b.data, v)
	return nil
}

// Values returns the accepted values. The slice is capped so callers
// cannot append into the buffer's spare capacity.
func (b *Buffer) Values() []float64 { return b.data[:len(b.data):len(b.data)] }

func (b *Buffer) Len() int { return len(b.data) }
func (b *Buffer) Cap() int { return cap(b.data) }
