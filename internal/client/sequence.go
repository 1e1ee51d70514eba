package client

import "sync/atomic"

// Sequence numbers in-flight calculations so that only the response to the
// most recent one is shown. The zero value is ready to use.
type Sequence struct {
	n atomic.Uint64
}

// Next returns the id for a new calculation. It becomes the latest.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Latest reports whether id belongs to the most recent calculation.
func (s *Sequence) Latest(id uint64) bool {
	return s.n.Load() == id
}
