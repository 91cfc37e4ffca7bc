package automaton3d

import (
	"fmt"
	"math/rand"
)

// state is the Kernel's position in the {Empty, Seeded, Running, Idle}
// machine from spec.md §4.2. It exists purely for documentation/testing;
// no method rejects a call based on state, since the spec only describes
// the transitions, not guards.
type state int

const (
	stateEmpty state = iota
	stateSeeded
	stateRunning
	stateIdle
)

// Kernel is the iteration engine: it holds the previous and current
// grids, the species configuration, the precomputed NeighbourTables, an
// iteration counter and the full OrderParameter history. Kernel
// exclusively owns both grid buffers and the history; NeighbourTables
// are rebuilt on any SpeciesConfig mutation.
type Kernel struct {
	config SpeciesConfig
	tables *NeighbourTables

	prev *Grid
	curr *Grid

	iteration int
	history   *OrderParameter

	state state
}

var _ Capability = (*Kernel)(nil)
var _ Configurable = (*Kernel)(nil)

// NewKernel constructs a Kernel with a zeroed grid of edge length n,
// empty history, and iteration = 0. Returns an error if n is not
// positive, and ConfigInvalid per NewNeighbourTables if config is
// malformed.
func NewKernel(n int, config SpeciesConfig) (*Kernel, error) {
	if n <= 0 {
		return nil, fmt.Errorf("automaton3d: grid size must be positive, got %d", n)
	}
	tables, err := NewNeighbourTables(config)
	if err != nil {
		return nil, err
	}
	return &Kernel{
		config:    config,
		tables:    tables,
		prev:      NewGrid(n),
		curr:      NewGrid(n),
		iteration: 0,
		history:   NewOrderParameter(config.NumSpecies()),
		state:     stateEmpty,
	}, nil
}

// Size returns N.
func (k *Kernel) Size() int {
	return k.curr.Size()
}

// Get returns the current generation's label at (x,y,z). Out-of-range
// coordinates panic (BoundsViolation).
func (k *Kernel) Get(x, y, z int) byte {
	return k.curr.Get(x, y, z)
}

// Set writes val into both buffers at (x,y,z), so a manually poked voxel
// survives the next run_iteration's previous/current swap. val must be
// in 0..=K; out-of-range coordinates or labels panic.
func (k *Kernel) Set(x, y, z int, val byte) {
	if int(val) > k.config.NumSpecies() {
		panic(fmt.Sprintf("automaton3d: species label %d exceeds K=%d", val, k.config.NumSpecies()))
	}
	k.prev.Set(x, y, z, val)
	k.curr.Set(x, y, z, val)
}

// IterationCount returns the number of completed iterations.
func (k *Kernel) IterationCount() int {
	return k.iteration
}

// SetIterationCount overrides the iteration counter, e.g. to align it
// after a manual grid edit.
func (k *Kernel) SetIterationCount(n int) {
	k.iteration = n
}

// SpeciesConfig returns the kernel's current rule set.
func (k *Kernel) SpeciesConfig() SpeciesConfig {
	return k.config
}

// SetSpeciesConfig replaces the rule set and rebuilds NeighbourTables.
// The grid and iteration counter are left untouched; the history is
// replaced by an empty one sized for the new K (the caller typically
// follows this with ClearAll or SpreadRandom for a fresh run).
func (k *Kernel) SetSpeciesConfig(config SpeciesConfig) error {
	tables, err := NewNeighbourTables(config)
	if err != nil {
		return err
	}
	k.config = config
	k.tables = tables
	k.history = NewOrderParameter(config.NumSpecies())
	return nil
}

// ClearAll zeroes the grid and resets iteration and history.
func (k *Kernel) ClearAll() {
	k.prev.Clear()
	k.curr.Clear()
	k.iteration = 0
	k.history.Reset()
	k.state = stateEmpty
}

// SpreadRandom fills each voxel independently with a uniform integer in
// [0, chemCount), resets the iteration counter to 0, clears history,
// then records the order parameter of the new state. chemCount must be
// in 1..=K+1.
func (k *Kernel) SpreadRandom(rng *rand.Rand, chemCount int) error {
	if chemCount < 1 || chemCount > k.config.NumSpecies()+1 {
		return fmt.Errorf("automaton3d: chem_count %d out of range [1, %d]", chemCount, k.config.NumSpecies()+1)
	}

	n := k.curr.Size()
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				label := byte(rng.Intn(chemCount))
				k.prev.Set(x, y, z, label)
				k.curr.Set(x, y, z, label)
			}
		}
	}

	k.iteration = 0
	k.history.Reset()
	k.history.Append(Compute(k.curr, k.config.NumSpecies()))
	k.state = stateSeeded
	return nil
}

// RunIteration advances one generation: the current grid becomes the
// previous snapshot, a new grid is computed from it via the parallel
// update rule, the iteration counter is incremented exactly once, and
// one order-parameter entry is appended. Never returns an error in this
// implementation — no runtime failure is expected from the core update
// rule (spec.md §7) — but the signature keeps the Capability interface
// uniform with the GPU backend, whose compute-shader dispatch can fail.
func (k *Kernel) RunIteration() error {
	k.state = stateRunning
	next := computeNextGeneration(k.curr, k.tables, k.config)
	k.prev = k.curr
	k.curr = next
	k.iteration++
	k.history.Append(Compute(k.curr, k.config.NumSpecies()))
	k.state = stateIdle
	return nil
}

// ImportFrom copies every voxel label from src (any Source of equal
// size), adopts src's iteration count, then clears and recomputes
// history from the imported state.
func (k *Kernel) ImportFrom(src Source) error {
	n := k.curr.Size()
	if src.Size() != n {
		return fmt.Errorf("automaton3d: import source size %d does not match kernel size %d", src.Size(), n)
	}

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				label := src.Get(x, y, z)
				k.prev.Set(x, y, z, label)
				k.curr.Set(x, y, z, label)
			}
		}
	}

	k.iteration = src.IterationCount()
	k.history.Reset()
	k.history.Append(Compute(k.curr, k.config.NumSpecies()))
	return nil
}

// Compare returns true iff size matches and every voxel label matches.
// This is the canonical, label-only form (spec.md §4.2/§9).
func (k *Kernel) Compare(other Source) bool {
	n := k.curr.Size()
	if other.Size() != n {
		return false
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				if k.curr.Get(x, y, z) != other.Get(x, y, z) {
					return false
				}
			}
		}
	}
	return true
}

// CompareStrict additionally requires IterationCount() to match. This is
// the optional stricter form spec.md §9's Open Questions mentions.
func (k *Kernel) CompareStrict(other Source) bool {
	return k.Compare(other) && k.iteration == other.IterationCount()
}

// OrderParameters returns the per-species order-parameter series
// (get_order_parameters in spec.md §4.3/§6).
func (k *Kernel) OrderParameters() [][]float32 {
	return k.history.PerSpeciesSeries()
}

// LastOrderParameter returns the ε vector recorded for the most recent
// iteration (or seed), or nil if none has been recorded yet.
func (k *Kernel) LastOrderParameter() []float32 {
	return k.history.Last()
}

// Export flattens the current grid, for snapshotting or the external
// (out-of-scope) HTTP surface's get-current-state operation.
func (k *Kernel) Export() []byte {
	return k.curr.Export()
}
