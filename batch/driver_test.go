package batch

import (
	"math/rand"
	"os"
	"testing"

	"github.com/cellsort/automaton3d"
	"github.com/stretchr/testify/require"
)

// fakeLock adapts a bare automaton3d.Capability to the Lock interface,
// letting the driver be exercised without an Engine.
type fakeLock struct {
	k automaton3d.Capability
}

func (f fakeLock) WithLock(fn func(k automaton3d.Capability) error) error {
	return fn(f.k)
}

func singleSpeciesConfig(promoteRange, promoteInfluence, demoteRange, demoteInfluence float32) automaton3d.SpeciesConfig {
	return automaton3d.SpeciesConfig{Groups: []automaton3d.SpeciesGroup{
		{
			Promote: automaton3d.Chemical{Range: promoteRange, Influence: promoteInfluence},
			Demote:  automaton3d.Chemical{Range: demoteRange, Influence: demoteInfluence},
		},
	}}
}

// S5 (batch leaves): a sweep with one two-step axis and no recursion
// below it produces exactly two result rows plus the header.
func TestDriver_S5_BatchLeaves(t *testing.T) {
	cfg := singleSpeciesConfig(1.1, 1.0, 2.0, -1.0)
	k, err := automaton3d.NewKernel(4, cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	fileName := dir + "/sweep-leaves"

	experiment := &Experiment{
		Entries: []Entry{
			{Species: 0, Chemical: Promotor, Variable: VariableInfluence, Min: 0.5, Max: 1.5, Step: 1.0},
		},
		ExportEntries: []ExportEntry{
			{Attribute: AttrChemValues},
			{Attribute: AttrIterations},
		},
		Iterations: 2,
		FileName:   fileName,
	}

	d := NewDriver(rand.New(rand.NewSource(1)), nil)
	require.NoError(t, d.Run(fakeLock{k: k}, experiment))

	data, err := os.ReadFile(fileName + ".csv")
	require.NoError(t, err)

	lines := splitCSVLines(string(data))
	require.Len(t, lines, 3) // header + 2 leaves
}

// Property 11: a sweep over two axes of sizes m and n produces m*n leaf rows.
func TestDriver_SweepCardinality(t *testing.T) {
	cfg := automaton3d.SpeciesConfig{Groups: []automaton3d.SpeciesGroup{
		{Promote: automaton3d.Chemical{Range: 1.1, Influence: 1}, Demote: automaton3d.Chemical{Range: 2, Influence: -1}},
		{Promote: automaton3d.Chemical{Range: 1.1, Influence: 1}, Demote: automaton3d.Chemical{Range: 2, Influence: -1}},
	}}
	k, err := automaton3d.NewKernel(4, cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	fileName := dir + "/sweep-cardinality"

	experiment := &Experiment{
		Entries: []Entry{
			{Species: 0, Chemical: Promotor, Variable: VariableInfluence, Min: 0, Max: 2, Step: 1}, // 3 values
			{Species: 1, Chemical: Demotor, Variable: VariableInfluence, Min: -1, Max: 0, Step: 1},  // 2 values
		},
		ExportEntries: []ExportEntry{
			{Attribute: AttrIterations},
		},
		Iterations: 1,
		FileName:   fileName,
	}

	d := NewDriver(rand.New(rand.NewSource(2)), nil)
	require.NoError(t, d.Run(fakeLock{k: k}, experiment))

	data, err := os.ReadFile(fileName + ".csv")
	require.NoError(t, err)

	lines := splitCSVLines(string(data))
	require.Len(t, lines, 1+3*2) // header + 6 leaves
}

func TestDriver_RejectsUnsupportedKernel(t *testing.T) {
	dir := t.TempDir()
	experiment := &Experiment{FileName: dir + "/unsupported"}

	d := NewDriver(nil, nil)
	err := d.Run(fakeLock{k: unconfigurableCapability{}}, experiment)
	require.ErrorIs(t, err, ErrUnsupportedKernel)
}

func TestDriver_RejectsOutOfRangeSpeciesAxis(t *testing.T) {
	cfg := singleSpeciesConfig(1.1, 1.0, 2.0, -1.0)
	k, err := automaton3d.NewKernel(4, cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	experiment := &Experiment{
		Entries: []Entry{
			{Species: 5, Chemical: Promotor, Variable: VariableRange, Min: 0, Max: 1, Step: 1},
		},
		Iterations: 1,
		FileName:   dir + "/bad-axis",
	}

	d := NewDriver(nil, nil)
	require.Error(t, d.Run(fakeLock{k: k}, experiment))
}

func splitCSVLines(data string) []string {
	var lines []string
	var cur string
	for i := 0; i < len(data); i++ {
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			lines = append(lines, cur)
			cur = ""
			i++
			continue
		}
		cur += string(data[i])
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// unconfigurableCapability implements Capability but not Configurable,
// standing in for a fixed-layout kernel backend that cannot be swept.
type unconfigurableCapability struct{}

func (unconfigurableCapability) Size() int                                        { return 1 }
func (unconfigurableCapability) Get(x, y, z int) byte                             { return 0 }
func (unconfigurableCapability) Set(x, y, z int, val byte)                        {}
func (unconfigurableCapability) ClearAll()                                        {}
func (unconfigurableCapability) SpreadRandom(rng *rand.Rand, chemCount int) error { return nil }
func (unconfigurableCapability) RunIteration() error                              { return nil }
func (unconfigurableCapability) IterationCount() int                              { return 0 }
func (unconfigurableCapability) SetIterationCount(n int)                          {}
