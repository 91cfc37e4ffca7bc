package automaton3d

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Engine is the process-wide, mutex-guarded holder of a single kernel
// instance, exposing the engine control surface of spec.md §6 as Go
// methods — the contract an (out-of-scope) HTTP layer calls into. All
// kernel work happens under Engine's lock; NeighbourTables are rebuilt
// within the lock and never shared across Engine instances.
type Engine struct {
	mu     sync.Mutex
	kernel Capability
	runID  uuid.UUID
	logger Logger

	chemicalCapture int // which species index the external mesher should treat as "inside"
	rng             *rand.Rand
}

// NewEngine builds an Engine around a freshly constructed CPU Kernel. A
// nil rng defaults, on the first spread, to one seeded from the engine's
// random run ID, which is then kept for later spreads; pass a seeded *rand.Rand
// for deterministic tests and batch sweeps (spec.md §5 Determinism).
func NewEngine(n int, config SpeciesConfig, rng *rand.Rand, logger Logger) (*Engine, error) {
	kernel, err := NewKernel(n, config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	e := &Engine{
		kernel: kernel,
		runID:  uuid.New(),
		logger: logger,
		rng:    rng,
	}
	e.logger.Infof("engine %s initialised: size=%d species=%d", e.runID, n, config.NumSpecies())
	return e, nil
}

// RunID identifies this engine instance for log correlation across a
// sweep or a long-lived server process.
func (e *Engine) RunID() uuid.UUID {
	return e.runID
}

// Initialise rebuilds the engine with a single-species legacy config
// (engine control surface "initialise" operation).
func (e *Engine) Initialise(n int, dcRange, dcInfluence, ucRange, ucInfluence float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	config := NewLegacyTwoBandConfig(dcRange, dcInfluence, ucRange, ucInfluence)
	kernel, err := NewKernel(n, config)
	if err != nil {
		return err
	}
	e.kernel = kernel
	e.logger.Infof("engine %s re-initialised: size=%d", e.runID, n)
	return nil
}

// ClearAllVoxels implements the "clear-all-voxels" operation.
func (e *Engine) ClearAllVoxels() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kernel.ClearAll()
}

// SpreadChemicalsRandomly implements "spread-chemicals-randomly".
func (e *Engine) SpreadChemicalsRandomly(chemCount int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(uuidSeed(e.runID)))
	}
	return e.kernel.SpreadRandom(e.rng, chemCount)
}

// RunIterations implements "run-iteration": iterate n times, returning
// the wall-clock seconds elapsed.
func (e *Engine) RunIterations(n int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return runIterationsLocked(e.kernel, n)
}

// SetChemicalCapture implements "set-chemical-capture": selects which
// species index the (external, out-of-scope) mesher treats as "inside".
func (e *Engine) SetChemicalCapture(species int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chemicalCapture = species
}

// GetChemicalCapture returns the currently captured species index.
func (e *Engine) GetChemicalCapture() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chemicalCapture
}

// SetSpeciesConfiguration implements "set-species-configuration": it
// only applies to the CPU Kernel capability, since the GPU kernel's
// buffer layout is sized from its own constructor; callers driving the
// GPU backend should reconstruct it instead.
func (e *Engine) SetSpeciesConfiguration(config SpeciesConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.kernel.(*Kernel)
	if !ok {
		return errNotCPUKernel
	}
	return k.SetSpeciesConfig(config)
}

// GetSpeciesConfiguration implements "get-species-configuration".
func (e *Engine) GetSpeciesConfiguration() (SpeciesConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.kernel.(*Kernel)
	if !ok {
		return SpeciesConfig{}, errNotCPUKernel
	}
	return k.SpeciesConfig(), nil
}

// GetIterations implements "get-iterations".
func (e *Engine) GetIterations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kernel.IterationCount()
}

// GetOrderParameter implements "get-order-parameter".
func (e *Engine) GetOrderParameter() ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.kernel.(*Kernel)
	if !ok {
		return nil, errNotCPUKernel
	}
	return k.OrderParameters(), nil
}

// GetAutomatonSize implements "get-automaton-size".
func (e *Engine) GetAutomatonSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kernel.Size()
}

// GetCurrentState implements "get-current-state": a full engine snapshot
// (flattened grid, iteration count, chemical capture selection).
type EngineSnapshot struct {
	Size            int
	Voxels          []byte
	Iteration       int
	ChemicalCapture int
}

func (e *Engine) GetCurrentState() EngineSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.kernel.Size()
	voxels := make([]byte, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				voxels = append(voxels, e.kernel.Get(x, y, z))
			}
		}
	}
	return EngineSnapshot{
		Size:            n,
		Voxels:          voxels,
		Iteration:       e.kernel.IterationCount(),
		ChemicalCapture: e.chemicalCapture,
	}
}

// WithLock runs fn with the engine's exclusive lock held, giving callers
// (notably BatchDriver) a way to hold the lock across a whole sweep
// rather than per-operation, matching spec.md §5's "all iteration and
// I/O happen under that lock."
func (e *Engine) WithLock(fn func(k Capability) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.kernel)
}

func runIterationsLocked(k Capability, n int) (float64, error) {
	start := nowSeconds()
	for i := 0; i < n; i++ {
		if err := k.RunIteration(); err != nil {
			return nowSeconds() - start, err
		}
	}
	return nowSeconds() - start, nil
}
