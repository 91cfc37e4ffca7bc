package gpu

import (
	"math/rand"
	"testing"

	"github.com/cellsort/automaton3d"
	"github.com/stretchr/testify/require"
)

// openTestDevice opens a headless wgpu device, skipping the test if no
// adapter is available in this environment (e.g. a CI runner with no GPU).
func openTestDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := OpenDevice()
	if err != nil {
		t.Skipf("no GPU adapter available: %v", err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func singleSpeciesConfig(promoteRange, promoteInfluence, demoteRange, demoteInfluence float32) automaton3d.SpeciesConfig {
	return automaton3d.SpeciesConfig{Groups: []automaton3d.SpeciesGroup{
		{
			Promote: automaton3d.Chemical{Range: promoteRange, Influence: promoteInfluence},
			Demote:  automaton3d.Chemical{Range: demoteRange, Influence: demoteInfluence},
		},
	}}
}

// S1-equivalent: an all-zero grid stays all-zero after one iteration, and
// matches the CPU kernel bit-for-bit.
func TestKernel_S1_ZeroUpdate(t *testing.T) {
	dev := openTestDevice(t)
	cfg := singleSpeciesConfig(0.5, 1.0, 0.5, -1.0)

	gk, err := NewKernel(dev, 4, cfg)
	require.NoError(t, err)
	defer gk.Close()

	ck, err := automaton3d.NewKernel(4, cfg)
	require.NoError(t, err)

	require.NoError(t, gk.RunIteration())
	require.NoError(t, ck.RunIteration())

	require.True(t, ck.Compare(gk), "GPU and CPU kernels diverged after one iteration on an all-zero grid")
}

// S2-equivalent: a single species-1 voxel at the origin promotes exactly
// its six wrapped face neighbours and keeps itself, matching the CPU
// kernel's wrap-probe result.
func TestKernel_S2_WrapProbe(t *testing.T) {
	dev := openTestDevice(t)
	cfg := singleSpeciesConfig(1.1, 1.0, 1.1, 0.0)

	gk, err := NewKernel(dev, 4, cfg)
	require.NoError(t, err)
	defer gk.Close()

	ck, err := automaton3d.NewKernel(4, cfg)
	require.NoError(t, err)

	gk.Set(0, 0, 0, 1)
	ck.Set(0, 0, 0, 1)

	require.NoError(t, gk.RunIteration())
	require.NoError(t, ck.RunIteration())

	require.True(t, ck.Compare(gk), "GPU and CPU kernels diverged after the wrap-probe iteration")
}

// TestKernel_DivergentSpeciesScores exercises the case the promotion test
// must get right for K>=2: one species' own score is positive while the
// summed aggregate across all species is negative. Promotion must follow
// the best individual species' score, not the aggregate's sign.
func TestKernel_DivergentSpeciesScores(t *testing.T) {
	dev := openTestDevice(t)
	cfg := automaton3d.SpeciesConfig{Groups: []automaton3d.SpeciesGroup{
		{
			Promote: automaton3d.Chemical{Range: 1.1, Influence: 5.0},
			Demote:  automaton3d.Chemical{Range: 1.1, Influence: 0.0},
		},
		{
			Promote: automaton3d.Chemical{Range: 1.1, Influence: 0.0},
			Demote:  automaton3d.Chemical{Range: 1.5, Influence: -10.0},
		},
	}}

	gk, err := NewKernel(dev, 6, cfg)
	require.NoError(t, err)
	defer gk.Close()

	ck, err := automaton3d.NewKernel(6, cfg)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	require.NoError(t, gk.SpreadRandom(rand.New(rand.NewSource(11)), 3))
	require.NoError(t, ck.SpreadRandom(rng, 3))

	for i := 0; i < 5; i++ {
		require.NoError(t, gk.RunIteration())
		require.NoError(t, ck.RunIteration())
	}

	require.True(t, ck.Compare(gk), "GPU and CPU kernels diverged under a config where species scores and the aggregate disagree in sign")
}
