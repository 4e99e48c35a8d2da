package application

import "sync"

// lookupRegistry tracks the open secondary subscriptions per code.
type lookupRegistry struct {
	mu     sync.Mutex
	nextID uint64
	byCode map[string]map[uint64]func()
}

func newLookupRegistry() *lookupRegistry {
	return &lookupRegistry{byCode: make(map[string]map[uint64]func())}
}

func (r *lookupRegistry) add(code string, cancel func()) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if r.byCode[code] == nil {
		r.byCode[code] = make(map[uint64]func())
	}
	r.byCode[code][r.nextID] = cancel
	return r.nextID
}

func (r *lookupRegistry) remove(code string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byCode[code], id)
	if len(r.byCode[code]) == 0 {
		delete(r.byCode, code)
	}
}

// cancelAll cancels every lookup still open for code and returns how many there were.
func (r *lookupRegistry) cancelAll(code string) int {
	r.mu.Lock()
	cancels := r.byCode[code]
	delete(r.byCode, code)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

func (r *lookupRegistry) open(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byCode[code])
}
