package bytestream

import "errors"

// ErrSourceExhausted is returned by SliceSource once every window was served.
var ErrSourceExhausted = errors.New("bytestream: source exhausted")

// SliceSource serves an in-memory payload in fixed-size windows. It mimics a
// reception buffer that only ever holds one window at a time.
type SliceSource struct {
	data   []byte
	window int
	pos    int
}

// NewSliceSource splits data into windows of at most window bytes.
func NewSliceSource(data []byte, window int) *SliceSource {
	if window <= 0 {
		window = len(data)
	}
	return &SliceSource{data: data, window: window}
}

// Stream returns a stream primed with the first window of the payload.
func (s *SliceSource) Stream() *Stream {
	first, err := s.Refill()
	if err != nil {
		first = nil
	}
	return New(first, s)
}

// Refill returns the next window.
func (s *SliceSource) Refill() ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, ErrSourceExhausted
	}
	end := s.pos + s.window
	if end > len(s.data) {
		end = len(s.data)
	}
	chunk := s.data[s.pos:end]
	s.pos = end
	return chunk, nil
}

// Remaining reports how many bytes were not yet handed out.
func (s *SliceSource) Remaining() int { return len(s.data) - s.pos }
