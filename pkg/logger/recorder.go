package logger

import (
	"fmt"
	"strings"
	"sync"
)

type Entry struct {
	Status  LogStatus
	Message string
}

// Recorder is a Logger which keeps every emitted entry in memory,
// regardless of the minimum logging level. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{entries: make([]Entry, 0)}
}

func (r *Recorder) Emit(status LogStatus, message string, interpolations ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Status: status, Message: strings.TrimSuffix(fmt.Sprintf(message, interpolations...), "\n")})
}

// Entries returns a copy of the entries recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// WithStatus returns the recorded entries with the given status.
func (r *Recorder) WithStatus(status LogStatus) []Entry {
	out := make([]Entry, 0)
	for _, e := range r.Entries() {
		if e.Status == status {
			out = append(out, e)
		}
	}

	return out
}

// Contains reports whether any entry with the given status contains
// the substring provided.
func (r *Recorder) Contains(status LogStatus, substr string) bool {
	for _, e := range r.WithStatus(status) {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}

	return false
}
