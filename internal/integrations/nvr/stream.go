package nvr

import "sync"

// Stream holds a camera's live view source URL.
//
// The surveillance station can move a camera's stream (port changes,
// transcoding profile changes) while the camera entity lives on. Source
// updates arrive via a dispatcher signal and swap the URL in place so
// anything holding the Stream sees the new source on its next read.
type Stream struct {
	mu     sync.RWMutex
	source string
}

// NewStream creates a stream with an initial source URL.
func NewStream(source string) *Stream {
	return &Stream{source: source}
}

// Source returns the current live view URL.
func (s *Stream) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// UpdateSource replaces the live view URL in place.
func (s *Stream) UpdateSource(source string) {
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()
}
