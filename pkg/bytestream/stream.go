// Package bytestream implements a bounded, forward-only reader over a buffer
// that is refilled on demand.
//
// A Stream borrows a window of bytes from whoever owns the reception buffer
// (for example the host link) and asks its Source for the next window once the
// current one is exhausted. This lets decoders walk payloads far larger than
// the memory they are allowed to hold, at the cost of random access: the
// stream is single-pass.
//
// Invariant: 0 <= offset <= len(buf) at all times. After a successful Read or
// Skip the offset has advanced by exactly the number of bytes consumed
// (modulo refills, which reset it to 0 for the new window).
package bytestream

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStream is returned when the stream state is unusable: no
	// backing buffer, no source, zero capacity or an offset outside the window.
	ErrInvalidStream = errors.New("bytestream: invalid stream")

	// ErrInvalidDestination is returned by Read when dst is nil.
	ErrInvalidDestination = errors.New("bytestream: invalid destination")

	// ErrRefillFailed wraps the error reported by the Source.
	ErrRefillFailed = errors.New("bytestream: refill failed")
)

// Source supplies the next window of a stream.
//
// Refill returns the new backing buffer. The stream only borrows it: the
// source keeps ownership and may reuse the memory on the following call.
// An error leaves the stream untouched.
type Source interface {
	Refill() ([]byte, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() ([]byte, error)

// Refill calls f.
func (f SourceFunc) Refill() ([]byte, error) { return f() }

// Stream is a forward-only reader over a refillable window.
type Stream struct {
	buf    []byte
	offset int
	src    Source
}

// New creates a stream positioned at the start of initial.
func New(initial []byte, src Source) *Stream {
	return &Stream{buf: initial, src: src}
}

// Offset returns the position inside the current window.
func (s *Stream) Offset() int { return s.offset }

// Buffered returns the number of unread bytes left in the current window.
func (s *Stream) Buffered() int {
	if s == nil || s.offset > len(s.buf) {
		return 0
	}
	return len(s.buf) - s.offset
}

// Read fills dst completely, refilling as many times as necessary.
func (s *Stream) Read(dst []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	if dst == nil {
		return ErrInvalidDestination
	}

	for n := 0; n < len(dst); {
		if err := s.ensure(); err != nil {
			return err
		}
		c := copy(dst[n:], s.buf[s.offset:])
		s.offset += c
		n += c
	}
	return nil
}

// Skip advances the stream by n bytes without copying them.
func (s *Stream) Skip(n uint64) error {
	if err := s.check(); err != nil {
		return err
	}

	for n > 0 {
		if err := s.ensure(); err != nil {
			return err
		}
		step := uint64(len(s.buf) - s.offset)
		if step > n {
			step = n
		}
		s.offset += int(step)
		n -= step
	}
	return nil
}

// Peek returns the next byte without consuming it. It refills the window if
// the current one is exhausted.
func (s *Stream) Peek() (byte, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if err := s.ensure(); err != nil {
		return 0, err
	}
	return s.buf[s.offset], nil
}

// ensure makes at least one unread byte available.
func (s *Stream) ensure() error {
	if s.offset < len(s.buf) {
		return nil
	}

	next, err := s.src.Refill()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefillFailed, err)
	}
	if len(next) == 0 {
		return fmt.Errorf("%w: source returned an empty window", ErrInvalidStream)
	}

	s.buf = next
	s.offset = 0
	return nil
}

func (s *Stream) check() error {
	switch {
	case s == nil:
		return ErrInvalidStream
	case s.buf == nil, s.src == nil:
		return ErrInvalidStream
	case len(s.buf) == 0:
		return ErrInvalidStream
	case s.offset < 0, s.offset > len(s.buf):
		return ErrInvalidStream
	}
	return nil
}
