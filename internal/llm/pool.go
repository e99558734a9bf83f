package llm

import (
	"math/rand"
	"sync"
)

// PoolEntry pairs a transport with the model id it should be invoked with.
type PoolEntry struct {
	Client Client
	Model  string
}

// Pool hands out transports for debate turns. When randomization is
// enabled, selection is uniform-random; otherwise round-robin. Analyst,
// trader, risk, and fund-manager stages never draw from the pool.
type Pool struct {
	mu        sync.Mutex
	entries   []PoolEntry
	randomize bool
	next      int
	rng       *rand.Rand
}

// NewPool builds a pool from entries. A nil/empty pool is valid; Pick
// then reports no selection.
func NewPool(entries []PoolEntry, randomize bool, seed int64) *Pool {
	return &Pool{
		entries:   entries,
		randomize: randomize,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Pick selects the transport for the next debate turn.
func (p *Pool) Pick() (PoolEntry, bool) {
	if p == nil {
		return PoolEntry{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return PoolEntry{}, false
	}
	if p.randomize {
		return p.entries[p.rng.Intn(len(p.entries))], true
	}
	entry := p.entries[p.next%len(p.entries)]
	p.next++
	return entry, true
}

// Size returns the number of pooled transports.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
