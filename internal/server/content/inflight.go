package content

import "sync"

// InFlight counts uploads per owner from just before Put until the node
// that references the new object is committed or the object is removed.
// The orphan sweeper leaves a busy owner's objects alone.
type InFlight struct {
	mu sync.Mutex
	n  map[string]int
}

func NewInFlight() *InFlight {
	return &InFlight{n: make(map[string]int)}
}

// Begin marks an upload for owner as started. The returned func ends it
// and is safe to call more than once.
func (f *InFlight) Begin(owner string) (done func()) {
	f.mu.Lock()
	f.n[owner]++
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.n[owner] <= 1 {
				delete(f.n, owner)
				return
			}
			f.n[owner]--
		})
	}
}

// Busy reports whether owner has an upload in progress.
func (f *InFlight) Busy(owner string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n[owner] > 0
}
