package tx

import "sync"

// NonceHolder hands out consecutive nonces for a single sender. The starting
// nonce is fetched from the network once; queued transactions then increment
// locally so they do not collide while earlier ones are still pending.
type NonceHolder struct {
	mu   sync.Mutex
	next uint64
}

// NewNonceHolder starts counting from the sender's current account nonce.
func NewNonceHolder(current uint64) *NonceHolder {
	return &NonceHolder{next: current}
}

// Next returns the nonce to use and advances the counter.
func (h *NonceHolder) Next() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.next
	h.next++
	return n
}
