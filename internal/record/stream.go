package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrInterrupted is returned by Stream.Next when an interrupt arrives before
// the next frame. No data is lost: the pending frame is delivered by the next call.
var ErrInterrupted = errors.New("read interrupted")

type result struct {
	frame []byte
	err   error
}

// Stream reads fixed-size frames from a byte stream. A pump goroutine owns the
// blocking reads so that waiting for a frame can be abandoned on interrupt or
// cancellation without corrupting the framing.
type Stream struct {
	size   int
	r      io.Reader
	frames chan result
	done   chan struct{}
	once   sync.Once
	final  error
}

// NewStream starts reading size-byte frames from r.
func NewStream(r io.Reader, size int) *Stream {
	s := &Stream{
		size:   size,
		r:      r,
		frames: make(chan result),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *Stream) pump() {
	for {
		buf := make([]byte, s.size)
		n, err := io.ReadFull(s.r, buf)
		res := result{frame: buf}
		switch {
		case err == io.EOF:
			res = result{err: io.EOF}
		case err == io.ErrUnexpectedEOF:
			res = result{err: fmt.Errorf("short frame: got %d of %d bytes: %w", n, s.size, err)}
		case err != nil:
			res = result{err: err}
		}
		select {
		case s.frames <- res:
		case <-s.done:
			return
		}
		if res.err != nil {
			return
		}
	}
}

// Next waits for the next frame. It returns io.EOF when the writer closed the
// stream on a frame boundary, ErrInterrupted when interrupts fires first, and
// ctx.Err() when ctx is done. A nil interrupts channel never fires.
// Once the stream has failed or ended, Next keeps returning the same error.
func (s *Stream) Next(ctx context.Context, interrupts <-chan struct{}) ([]byte, error) {
	if s.final != nil {
		return nil, s.final
	}
	select {
	case res := <-s.frames:
		if res.err != nil {
			s.final = res.err
			return nil, res.err
		}
		return res.frame, nil
	case <-interrupts:
		return nil, ErrInterrupted
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the pump and closes the underlying reader if it is closable.
// Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if c, ok := s.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
