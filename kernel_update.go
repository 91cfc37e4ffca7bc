package automaton3d

import "sync"

// numUpdateWorkers mirrors the original CPU implementation's fixed
// thread-pool size (automaton_cpu.rs used 16 OS threads); goroutines are
// far cheaper than OS threads, so this is a worker count, not a thread
// cap, and is clamped to the grid size for small grids in tests.
const numUpdateWorkers = 16

// speciesInfluence returns, for voxel (x,y,z) in prev, the per-species
// promote/demote contribution to species s's influence:
//
//	chem.promote.influence * count_promote(v,s) + chem.demote.influence * count_demote(v,s)
func speciesInfluence(prev *Grid, nt *NeighbourTables, group SpeciesGroup, s, x, y, z int) float32 {
	n := prev.Size()

	countMatches := func(list *offsetList) int {
		count := 0
		for i := 0; i < list.len(); i++ {
			o := list.OffsetAt(i)
			wx := wrap(x+o.DX, n)
			wy := wrap(y+o.DY, n)
			wz := wrap(z+o.DZ, n)
			if prev.Get(wx, wy, wz) == byte(s) {
				count++
			}
		}
		return count
	}

	promoteCount := countMatches(nt.PromoteOffsets(s))
	demoteCount := countMatches(nt.DemoteOffsets(s))

	return group.Promote.Influence*float32(promoteCount) + group.Demote.Influence*float32(demoteCount)
}

// updateVoxel computes the next label for (x,y,z) given the previous
// generation, per spec.md §4.2's update rule: argmax over species of the
// per-species contribution, ties broken by lowest index; if the best
// per-species contribution is strictly positive, take that species; else
// if the aggregate influence is strictly negative, go to 0; else carry
// the previous label forward.
func updateVoxel(prev *Grid, nt *NeighbourTables, config SpeciesConfig, x, y, z int) byte {
	var aggregate float32
	bestSpecies := -1
	var bestContribution float32

	for s := 1; s <= config.NumSpecies(); s++ {
		contribution := speciesInfluence(prev, nt, config.Groups[s-1], s, x, y, z)
		aggregate += contribution
		if bestSpecies == -1 || contribution > bestContribution {
			bestSpecies = s
			bestContribution = contribution
		}
	}

	switch {
	case bestContribution > 0:
		return byte(bestSpecies)
	case aggregate < 0:
		return 0
	default:
		return prev.Get(x, y, z)
	}
}

// computeNextGeneration evaluates updateVoxel for every voxel, splitting
// the x-axis into disjoint slabs across numUpdateWorkers goroutines. Each
// worker reads only prev and writes only its slab of next; prev is never
// mutated during the pass, so no synchronisation beyond the join barrier
// at the end is needed (spec.md §5).
func computeNextGeneration(prev *Grid, nt *NeighbourTables, config SpeciesConfig) *Grid {
	n := prev.Size()
	next := NewGrid(n)

	workers := numUpdateWorkers
	if workers > n {
		workers = n
	}
	slab := n / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		xmin := w * slab
		xmax := xmin + slab
		if w == workers-1 {
			xmax = n
		}

		wg.Add(1)
		go func(xmin, xmax int) {
			defer wg.Done()
			for x := xmin; x < xmax; x++ {
				for y := 0; y < n; y++ {
					for z := 0; z < n; z++ {
						next.Set(x, y, z, updateVoxel(prev, nt, config, x, y, z))
					}
				}
			}
		}(xmin, xmax)
	}
	wg.Wait()

	return next
}
