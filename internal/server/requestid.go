package server

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// requestIDs generates lexicographically sortable request ids from a
// monotonic entropy source.
type requestIDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newRequestIDs() *requestIDs {
	return &requestIDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *requestIDs) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), g.entropy).String()
}

// fromRequest keeps a well-formed incoming id and generates one otherwise.
func (g *requestIDs) fromRequest(v string) string {
	if _, err := ulid.ParseStrict(v); err == nil {
		return v
	}
	return g.next()
}
