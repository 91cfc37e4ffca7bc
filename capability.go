package automaton3d

import "math/rand"

// Capability is the abstract data-level surface shared by every kernel
// variant (pure CPU, GPU-accelerated, chunked, ...), per Design Notes §9
// "Polymorphism over engine variants." Consumers (Engine, BatchDriver)
// depend only on this interface, so kernel variants plug in without
// altering them. Mesh extraction is deliberately not part of this
// capability — it is an external, out-of-scope collaborator that would
// read ChemicalCapture off a richer type, not this one.
type Capability interface {
	Size() int
	Get(x, y, z int) byte
	Set(x, y, z int, val byte)
	ClearAll()
	SpreadRandom(rng *rand.Rand, chemCount int) error
	RunIteration() error
	IterationCount() int
	SetIterationCount(n int)
}

// Source is what ImportFrom copies from: anything exposing size, a
// bounds-checked getter, and an iteration count. Any Capability
// implementation, or a bare snapshot, satisfies it.
type Source interface {
	Size() int
	Get(x, y, z int) byte
	IterationCount() int
}

// Configurable extends Capability with the species-configuration and
// order-parameter access a parameter sweep needs: it mutates the
// chemical rule between runs and reads back the resulting history.
// A Capability that cannot support post-construction reconfiguration
// (for example a fixed-layout GPU kernel) need not implement it; a
// sweep over such a kernel fails fast with a type-assertion error
// instead of silently sweeping nothing.
type Configurable interface {
	Capability
	SpeciesConfig() SpeciesConfig
	SetSpeciesConfig(config SpeciesConfig) error
	OrderParameters() [][]float32
	LastOrderParameter() []float32
}
