package gateway

import "sync"

// Navigator is the client's notion of "where the user currently is". The
// gateway redirects through it on authorization failures.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// HistoryNavigator records every navigation in memory.
type HistoryNavigator struct {
	mu      sync.Mutex
	history []string
}

func NewHistoryNavigator(start string) *HistoryNavigator {
	return &HistoryNavigator{history: []string{start}}
}

func (h *HistoryNavigator) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history[len(h.history)-1]
}

func (h *HistoryNavigator) Navigate(path string) {
	h.mu.Lock()
	h.history = append(h.history, path)
	h.mu.Unlock()
}

// History returns the visited locations, oldest first, including the start.
func (h *HistoryNavigator) History() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.history))
	copy(out, h.history)
	return out
}

// Visits counts how many times path was navigated to.
func (h *HistoryNavigator) Visits(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, p := range h.history[1:] {
		if p == path {
			n++
		}
	}
	return n
}
