package automaton3d

// OrderParameter computes and stores the per-iteration spatial-order
// vector ε for a grid with K differentiated species. ε has length K+1:
// ε[0] is the undifferentiated-cell order, ε[s] (s=1..K) is species s's.
//
// Compute is pure in the current grid (spec.md §4.3); OrderParameter
// itself only owns the append-only history.
type OrderParameter struct {
	numSpecies int
	history    [][]float32 // one (K+1)-vector per iteration, in insertion order
}

// NewOrderParameter creates an empty history tracker for a grid with k
// differentiated species.
func NewOrderParameter(k int) *OrderParameter {
	return &OrderParameter{numSpecies: k}
}

// Reset clears the recorded history.
func (op *OrderParameter) Reset() {
	op.history = op.history[:0]
}

// Len returns the number of iterations recorded.
func (op *OrderParameter) Len() int {
	return len(op.history)
}

// Compute scans every voxel and its six wrapped face neighbours,
// contributing +1 to sum[label(v)] on a match and -1 on a mismatch, then
// normalises by 6·N³. The result is only returned; callers record it
// with Append.
func Compute(grid *Grid, numSpecies int) []float32 {
	n := grid.Size()
	sum := make([]float64, numSpecies+1)

	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				label := grid.Get(x, y, z)
				neighbours := [6]byte{
					grid.Get(wrap(x-1, n), y, z),
					grid.Get(wrap(x+1, n), y, z),
					grid.Get(x, wrap(y-1, n), z),
					grid.Get(x, wrap(y+1, n), z),
					grid.Get(x, y, wrap(z-1, n)),
					grid.Get(x, y, wrap(z+1, n)),
				}
				for _, nb := range neighbours {
					if nb == label {
						sum[label]++
					} else {
						sum[label]--
					}
				}
			}
		}
	}

	denom := float64(6 * n * n * n)
	eps := make([]float32, numSpecies+1)
	for s := range eps {
		eps[s] = float32(sum[s] / denom)
	}
	return eps
}

// Append records eps (typically the output of Compute) as the next
// iteration's order parameter.
func (op *OrderParameter) Append(eps []float32) {
	op.history = append(op.history, eps)
}

// Last returns the most recently recorded ε vector, or nil if history is
// empty.
func (op *OrderParameter) Last() []float32 {
	if len(op.history) == 0 {
		return nil
	}
	return op.history[len(op.history)-1]
}

// History returns the per-iteration ε vectors in iteration order. The
// returned slice aliases internal storage and must not be mutated.
func (op *OrderParameter) History() [][]float32 {
	return op.history
}

// PerSpeciesSeries returns the transpose of History(): K+1 series, one
// per species (including undifferentiated), each of length equal to the
// number of recorded iterations. This is the shape get_order_parameters
// hands to consumers (spec.md §4.3).
func (op *OrderParameter) PerSpeciesSeries() [][]float32 {
	result := make([][]float32, op.numSpecies+1)
	for s := range result {
		result[s] = make([]float32, len(op.history))
	}
	for iter, eps := range op.history {
		for s := 0; s <= op.numSpecies; s++ {
			result[s][iter] = eps[s]
		}
	}
	return result
}
