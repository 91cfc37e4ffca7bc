package batch

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/cellsort/automaton3d"
)

// ErrUnsupportedKernel is returned when the engine's active capability
// cannot be reconfigured mid-sweep (for example a fixed-layout GPU
// kernel). Driver.Run fails fast with this rather than silently running
// a sweep of one.
var ErrUnsupportedKernel = errors.New("batch: active kernel does not support reconfiguration")

// errBadAxis reports an Entry whose (Chemical, Variable) pair does not
// name one of the four SpeciesGroup fields, or whose Species index is
// out of range. It surfaces as a returned error rather than a panic: the
// bad data originates from an external caller, not a programming error.
func errBadAxis(e Entry) error {
	return fmt.Errorf("batch: invalid axis: species=%d chemical=%q variable=%q", e.Species, e.Chemical, e.Variable)
}

// Driver runs Experiments against an engine-like lock holder. Lock is
// satisfied by *automaton3d.Engine's WithLock; it is abstracted here so
// the driver can be tested against a bare Configurable without an Engine.
type Lock interface {
	WithLock(fn func(k automaton3d.Capability) error) error
}

// Driver owns the RNG used to seed each leaf run's SpreadRandom call and
// an optional logger for sweep progress.
type Driver struct {
	Rng    *rand.Rand
	Logger automaton3d.Logger
}

// NewDriver builds a Driver with the given seed source. With a nil rng,
// each leaf run seeds from a fresh source with seed 1, so every leaf
// starts from the same random fill.
func NewDriver(rng *rand.Rand, logger automaton3d.Logger) *Driver {
	if logger == nil {
		logger = automaton3d.NewNopLogger()
	}
	return &Driver{Rng: rng, Logger: logger}
}

// Run executes the experiment against lock's kernel: it creates (or
// truncates) FileName + ".csv", writes the header row, then walks the
// sweep's Cartesian product, writing one data row per leaf combination.
// The whole sweep holds lock's exclusive lock, so no other interaction
// with the engine can interleave with it.
func (d *Driver) Run(lock Lock, experiment *Experiment) error {
	f, err := os.Create(experiment.FileName + ".csv")
	if err != nil {
		return fmt.Errorf("batch: creating result file: %w", err)
	}
	defer f.Close()

	w := &csvWriter{file: f, comma: decimalComma(experiment.FloatingPoint)}

	return lock.WithLock(func(k automaton3d.Capability) error {
		ck, ok := k.(automaton3d.Configurable)
		if !ok {
			return ErrUnsupportedKernel
		}

		if err := w.writeHeader(experiment, ck.SpeciesConfig().NumSpecies()); err != nil {
			return err
		}
		return d.sweep(ck, experiment, experiment.Entries, w)
	})
}

// sweep recurses over experiment.Entries: the base case (no entries
// left) spreads chemicals, runs the configured iteration count, times
// it, and writes one result row. The recursive case pops the first
// entry and walks its Min..Max range in Step increments, applying each
// value to the kernel's species configuration before recursing on the
// remaining entries.
func (d *Driver) sweep(k automaton3d.Configurable, experiment *Experiment, entries []Entry, w *csvWriter) error {
	if len(entries) == 0 {
		return d.runLeaf(k, experiment, w)
	}

	varying := entries[0]
	rest := entries[1:]

	cfg := k.SpeciesConfig()
	if varying.Species < 0 || varying.Species >= cfg.NumSpecies() {
		return errBadAxis(varying)
	}

	d.Logger.Infof("batch: varying species %d %s %s from %v to %v step %v",
		varying.Species, varying.Chemical, varying.Variable, varying.Min, varying.Max, varying.Step)

	for val := varying.Min; val <= varying.Max; val += varying.Step {
		cfg := k.SpeciesConfig()
		if err := applyEntry(&cfg, varying, val); err != nil {
			return err
		}
		if err := k.SetSpeciesConfig(cfg); err != nil {
			return err
		}
		if err := d.sweep(k, experiment, rest, w); err != nil {
			return err
		}
	}
	return nil
}

// runLeaf is the base case: spread chemicals uniformly over all K+1
// labels, run the experiment's fixed iteration count, and write the
// resulting row.
func (d *Driver) runLeaf(k automaton3d.Configurable, experiment *Experiment, w *csvWriter) error {
	rng := d.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if err := k.SpreadRandom(rng, k.SpeciesConfig().NumSpecies()+1); err != nil {
		return err
	}

	start := nowSeconds()
	for i := 0; i < experiment.Iterations; i++ {
		if err := k.RunIteration(); err != nil {
			return err
		}
	}
	simTime := nowSeconds() - start

	return w.writeRow(k, experiment, simTime)
}

// applyEntry mutates cfg's species group in place per (chemical, variable).
func applyEntry(cfg *automaton3d.SpeciesConfig, e Entry, val float32) error {
	group := &cfg.Groups[e.Species]
	switch {
	case e.Chemical == Promotor && e.Variable == VariableRange:
		group.Promote.Range = val
	case e.Chemical == Promotor && e.Variable == VariableInfluence:
		group.Promote.Influence = val
	case e.Chemical == Demotor && e.Variable == VariableRange:
		group.Demote.Range = val
	case e.Chemical == Demotor && e.Variable == VariableInfluence:
		group.Demote.Influence = val
	default:
		return errBadAxis(e)
	}
	return nil
}

func decimalComma(floatingPoint string) bool {
	return strings.EqualFold(floatingPoint, "comma")
}

func formatFloat(v float32, comma bool) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if comma {
		s = strings.ReplaceAll(s, ".", ",")
	}
	return s
}
