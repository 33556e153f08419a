package notify

import (
	"sync"
	"time"
)

// DefaultStatusTimeout is how long a transient status message stays
// visible before it is cleared.
const DefaultStatusTimeout = 5 * time.Second

// StatusLine holds a single transient status message, the moral equivalent
// of a GUI status bar. Setting a message with a timeout schedules an
// automatic clear; a newer message cancels the pending clear of the old one.
type StatusLine struct {
	mu       sync.Mutex
	message  string
	severity Severity
	setAt    time.Time
	timer    *time.Timer
	gen      uint64
}

// NewStatusLine returns an empty status line.
func NewStatusLine() *StatusLine {
	return &StatusLine{}
}

// Set displays a message with the given severity. A timeout > 0 clears the
// message automatically once it elapses; timeout <= 0 keeps it until
// replaced or cleared.
func (s *StatusLine) Set(message string, severity Severity, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	s.severity = severity
	s.setAt = time.Now()
	s.gen++

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if timeout > 0 {
		gen := s.gen
		s.timer = time.AfterFunc(timeout, func() {
			s.clearIfCurrent(gen)
		})
	}
}

func (s *StatusLine) clearIfCurrent(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.message = ""
	s.severity = ""
	s.timer = nil
}

// Clear removes the current message immediately.
func (s *StatusLine) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = ""
	s.severity = ""
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Get returns the current message and its severity. An empty message means
// the status line is clear.
func (s *StatusLine) Get() (string, Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message, s.severity
}
