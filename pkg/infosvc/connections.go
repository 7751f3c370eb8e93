package infosvc

import (
	"math/rand/v2"
	"sync"
)

const (
	MinActiveConnections = 1
	MaxActiveConnections = 20
)

// ConnectionSimulator produces the simulated "active connections" figure.
// It is not a measurement; every call draws a fresh value.
type ConnectionSimulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewConnectionSimulator uses src when given, otherwise a randomly seeded PCG.
func NewConnectionSimulator(src rand.Source) *ConnectionSimulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &ConnectionSimulator{rng: rand.New(src)}
}

// Next returns a uniformly distributed value in [MinActiveConnections, MaxActiveConnections].
func (c *ConnectionSimulator) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(MaxActiveConnections-MinActiveConnections+1) + MinActiveConnections
}
