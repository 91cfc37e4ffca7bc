package automaton3d

import "fmt"

// DefaultAutomatonSize is the lattice edge length the original server ran
// with. N is a constructor-time constant in this implementation, not a
// compile-time one, so tests can use small grids.
const DefaultAutomatonSize = 30

// K_MAX bounds the number of differentiated species a SpeciesConfig may
// describe, matching the original server's limit.
const K_MAX = 20

// Grid is a cubic N×N×N field of species labels in 0..=K, stored as a
// flat byte slice in x + y*N + z*N*N order.
type Grid struct {
	n      int
	voxels []byte
}

// NewGrid allocates an all-zero grid of edge length n. Panics if n <= 0
// (zero-sized grid is rejected at construction, per spec).
func NewGrid(n int) *Grid {
	if n <= 0 {
		panic(fmt.Sprintf("automaton3d: grid size must be positive, got %d", n))
	}
	return &Grid{
		n:      n,
		voxels: make([]byte, n*n*n),
	}
}

// Size returns the grid's edge length N.
func (g *Grid) Size() int {
	return g.n
}

func (g *Grid) index(x, y, z int) int {
	n := g.n
	if x < 0 || x >= n || y < 0 || y >= n || z < 0 || z >= n {
		panic(fmt.Sprintf("automaton3d: voxel (%d,%d,%d) out of bounds for size %d", x, y, z, n))
	}
	return x + y*n + z*n*n
}

// Get returns the label at (x,y,z). Out-of-range coordinates panic
// (programmer error, per spec's BoundsViolation taxonomy).
func (g *Grid) Get(x, y, z int) byte {
	return g.voxels[g.index(x, y, z)]
}

// Set stores val at (x,y,z). Out-of-range coordinates panic.
func (g *Grid) Set(x, y, z int, val byte) {
	g.voxels[g.index(x, y, z)] = val
}

// Clear zeroes every voxel.
func (g *Grid) Clear() {
	for i := range g.voxels {
		g.voxels[i] = 0
	}
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	cp := &Grid{n: g.n, voxels: make([]byte, len(g.voxels))}
	copy(cp.voxels, g.voxels)
	return cp
}

// Export flattens the grid into a byte buffer in x + y*N + z*N*N order,
// the format importBytes reads back (Kernel.ImportFrom copies through a
// Source's Get instead). Mirrors the Rust GPU struct's export().
func (g *Grid) Export() []byte {
	out := make([]byte, len(g.voxels))
	copy(out, g.voxels)
	return out
}

// importBytes replaces the grid contents from a flat buffer produced by
// Export. Panics if the length does not match N³.
func (g *Grid) importBytes(data []byte) {
	if len(data) != len(g.voxels) {
		panic(fmt.Sprintf("automaton3d: import buffer has %d bytes, expected %d", len(data), len(g.voxels)))
	}
	copy(g.voxels, data)
}

// wrap maps a signed axis offset into [0, n) toroidally. Valid for any
// offset with magnitude up to 2n-1 in either direction (multiple wraps
// are not required by the update rule, since neighbour offsets never
// exceed a couple of radii, but the formula holds generally).
func wrap(coord, n int) int {
	m := coord % n
	if m < 0 {
		m += n
	}
	return m
}
