package automaton3d

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/google/uuid"
)

var errNotCPUKernel = errors.New("automaton3d: operation requires the CPU kernel capability")

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// uuidSeed derives a math/rand seed from a UUID's first 8 bytes, used
// only as a per-engine fallback when a caller does not supply its own
// seeded *rand.Rand (spec.md §5: "implementations should expose a
// seedable entry point for tests" — this is the non-test default, tests
// always pass their own rng).
func uuidSeed(id uuid.UUID) int64 {
	b := id[:8]
	return int64(binary.BigEndian.Uint64(b))
}
