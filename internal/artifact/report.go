package artifact

import (
	"sort"
	"sync"
)

// Report summarises the outcome of a single Persist call.
type Report struct {
	mu      sync.Mutex
	Written []string
	Skipped []string
	Failed  map[string]error
}

func newReport() *Report {
	return &Report{Written: make([]string, 0), Skipped: make([]string, 0), Failed: make(map[string]error)}
}

func (r *Report) written(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Written = append(r.Written, name)
}

func (r *Report) skipped(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped = append(r.Skipped, name)
}

func (r *Report) failed(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed[name] = err
}

// sortFields orders the field lists so the report is deterministic,
// irrespective of the order the workers finished in.
func (r *Report) sortFields() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.Strings(r.Written)
	sort.Strings(r.Skipped)
}
