// Package ids mints the time-sortable identifiers used for jobs, items
// and features.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Minter produces lexicographically ordered ULIDs. Successive calls on
// one minter are strictly monotonic, even within the same millisecond, so
// identifiers are non-decreasing in generation order.
type Minter struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewMinter creates a minter backed by crypto/rand entropy.
func NewMinter() *Minter {
	return &Minter{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewMinterAt creates a minter with a fixed clock. Used in tests where
// reproducible identifier prefixes matter.
func NewMinterAt(now func() time.Time) *Minter {
	return &Minter{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     now,
	}
}

// New returns the next identifier.
func (m *Minter) New() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(m.now()), m.entropy).String()
}
