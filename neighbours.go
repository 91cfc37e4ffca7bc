package automaton3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Offset is a single integer neighbour displacement (dx, dy, dz).
type Offset struct {
	DX, DY, DZ int
}

// offsetList stores one species' offsets as parallel arrays, the layout
// spec.md §4.1 favours for contiguous scans. OffsetAt reconstructs the
// tuple form when a caller wants it (used by tests).
type offsetList struct {
	x, y, z []int
}

func (l *offsetList) append(o Offset) {
	l.x = append(l.x, o.DX)
	l.y = append(l.y, o.DY)
	l.z = append(l.z, o.DZ)
}

func (l *offsetList) len() int {
	return len(l.x)
}

// Len returns the number of offsets in the list, for callers outside
// this package (e.g. the gpu backend flattening tables into GPU buffers).
func (l *offsetList) Len() int {
	return len(l.x)
}

// OffsetAt returns the i-th offset in the list.
func (l *offsetList) OffsetAt(i int) Offset {
	return Offset{DX: l.x[i], DY: l.y[i], DZ: l.z[i]}
}

// NeighbourTables holds, for every species s in 1..K, the promote and
// demote offset lists precomputed from the SpeciesConfig's promote/demote
// radii. Rebuilt whenever the SpeciesConfig changes; never recomputed
// per voxel.
type NeighbourTables struct {
	promote []offsetList // index 0 unused; species are 1-indexed
	demote  []offsetList
}

// NewNeighbourTables builds the offset tables for config. Returns
// ErrEmptySpeciesConfig / ErrTooManySpecies / ErrNegativeRange per
// spec.md §4.1's error conditions.
func NewNeighbourTables(config SpeciesConfig) (*NeighbourTables, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	k := config.NumSpecies()
	nt := &NeighbourTables{
		promote: make([]offsetList, k+1),
		demote:  make([]offsetList, k+1),
	}

	maxRange := float32(0)
	for _, g := range config.Groups {
		if g.Promote.Range > maxRange {
			maxRange = g.Promote.Range
		}
		if g.Demote.Range > maxRange {
			maxRange = g.Demote.Range
		}
	}
	r := int(math.Ceil(float64(maxRange))) + 2

	for dx := -r; dx < r; dx++ {
		for dy := -r; dy < r; dy++ {
			for dz := -r; dz < r; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				d := mgl32.Vec3{float32(dx), float32(dy), float32(dz)}.Len()
				for s := 1; s <= k; s++ {
					group := config.Groups[s-1]
					switch {
					case d <= group.Promote.Range:
						nt.promote[s].append(Offset{DX: dx, DY: dy, DZ: dz})
					case d <= group.Demote.Range:
						nt.demote[s].append(Offset{DX: dx, DY: dy, DZ: dz})
					}
				}
			}
		}
	}

	return nt, nil
}

// PromoteOffsets returns the promote offset list for species s (1..K).
func (nt *NeighbourTables) PromoteOffsets(s int) *offsetList {
	return &nt.promote[s]
}

// DemoteOffsets returns the demote offset list for species s (1..K).
func (nt *NeighbourTables) DemoteOffsets(s int) *offsetList {
	return &nt.demote[s]
}

// NumSpecies returns K, inferred from the table sizes.
func (nt *NeighbourTables) NumSpecies() int {
	return len(nt.promote) - 1
}
