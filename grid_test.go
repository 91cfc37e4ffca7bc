package automaton3d

import "testing"

func TestGrid_NewGridZeroed(t *testing.T) {
	g := NewGrid(4)
	if g.Size() != 4 {
		t.Errorf("Expected size 4, got %v", g.Size())
	}
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 4; z++ {
				if g.Get(x, y, z) != 0 {
					t.Errorf("Expected zeroed grid, got %v at (%d,%d,%d)", g.Get(x, y, z), x, y, z)
				}
			}
		}
	}
}

func TestGrid_SetGet(t *testing.T) {
	g := NewGrid(3)
	g.Set(1, 2, 0, 5)
	if got := g.Get(1, 2, 0); got != 5 {
		t.Errorf("Expected 5, got %v", got)
	}
}

func TestGrid_OutOfBoundsPanics(t *testing.T) {
	g := NewGrid(3)
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic on out-of-bounds access")
		}
	}()
	g.Get(3, 0, 0)
}

func TestGrid_ZeroSizePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic on zero-sized grid construction")
		}
	}()
	NewGrid(0)
}

func TestGrid_ClearResetsAllVoxels(t *testing.T) {
	g := NewGrid(2)
	g.Set(0, 0, 0, 1)
	g.Set(1, 1, 1, 2)
	g.Clear()
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				if g.Get(x, y, z) != 0 {
					t.Errorf("Expected all voxels cleared, got %v at (%d,%d,%d)", g.Get(x, y, z), x, y, z)
				}
			}
		}
	}
}

func TestGrid_ExportImportRoundTrip(t *testing.T) {
	g := NewGrid(3)
	g.Set(0, 1, 2, 7)
	g.Set(2, 2, 2, 3)

	data := g.Export()

	g2 := NewGrid(3)
	g2.importBytes(data)

	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				if g.Get(x, y, z) != g2.Get(x, y, z) {
					t.Errorf("Export/import mismatch at (%d,%d,%d): %v vs %v", x, y, z, g.Get(x, y, z), g2.Get(x, y, z))
				}
			}
		}
	}
}

func TestWrap(t *testing.T) {
	cases := []struct {
		coord, n, want int
	}{
		{0, 4, 0},
		{3, 4, 3},
		{4, 4, 0},
		{-1, 4, 3},
		{-4, 4, 0},
		{-5, 4, 3},
		{9, 4, 1},
		{-9, 4, 3},
	}
	for _, c := range cases {
		if got := wrap(c.coord, c.n); got != c.want {
			t.Errorf("wrap(%d, %d) = %d, want %d", c.coord, c.n, got, c.want)
		}
	}
}
