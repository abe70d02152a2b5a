package testfixtures

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator hands out predictable identifiers. Prefixed generators yield
// "prefix-N"; UUID generators yield name-based UUIDs so tests exercising code
// that expects UUID shaped ids stay deterministic.
type IDGenerator struct {
	mu        sync.Mutex
	prefix    string
	namespace *uuid.UUID
	counter   uint64
}

// NewIDGenerator returns a prefixed generator. An empty prefix means "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// NewUUIDGenerator returns a generator of SHA-1 UUIDs derived from seed and
// a counter. Equal seeds give equal sequences.
func NewUUIDGenerator(seed string) *IDGenerator {
	namespace := uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
	return &IDGenerator{namespace: &namespace}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	if g.namespace != nil {
		return uuid.NewSHA1(*g.namespace, []byte(strconv.FormatUint(g.counter, 10))).String()
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next for injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}
