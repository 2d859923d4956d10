package verification

import (
	"math/rand"
	"strings"
	"sync"
)

// Generator produces verification code candidates. It owns its random source
// outright instead of touching the package-global one, so tests can inject a
// seeded rand.Source and get a deterministic sequence.
type Generator struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	length int
	maxID  int
}

// NewGenerator returns a Generator emitting values of exactly length digits
// and code ids uniform in [0, maxID]. The source does not need to be
// cryptographically secure; seed it unpredictably in production.
func NewGenerator(src rand.Source, length, maxID int) *Generator {
	return &Generator{rnd: rand.New(src), length: length, maxID: maxID}
}

// Generate returns a candidate code id and value. It has no side effects;
// collisions with outstanding code ids are the store's problem to reject.
func (g *Generator) Generate() (codeID int, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		b.WriteByte('0' + byte(g.rnd.Intn(10)))
	}
	return g.rnd.Intn(g.maxID + 1), b.String()
}
