package annotation

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator issues unique annotation ids.  Wall-clock timestamps alone are
// not sufficient: one generation pass can create many annotations within the
// same millisecond, and a mapping-based store silently overwrites on id
// collision.  Ids therefore combine a process-local monotonic counter with a
// random uuid suffix, which also keeps regeneration passes from ever reusing
// ids produced by a previous pass.
type IDGenerator struct {
	counter atomic.Uint64
}

// NewIDGenerator returns a generator starting from zero.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns a fresh id of the form "ann-<counter>-<uuid>".
// Safe for concurrent use.
func (g *IDGenerator) Next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("ann-%d-%s", n, uuid.NewString())
}
