package automaton3d

import "errors"

// Chemical is one half of a species' rule: a spatial range and a signed
// influence. By convention promote influences are positive and demote
// influences are negative. The kernel enforces neither the sign nor the
// range ordering between promote and demote (see SpeciesGroup and
// Validate).
type Chemical struct {
	Range     float32
	Influence float32
}

// SpeciesGroup is the full promote/demote rule for one species. The
// demote range must be >= the promote range: demote forms an outer
// shell around the promote sphere.
type SpeciesGroup struct {
	Promote Chemical
	Demote  Chemical
}

// SpeciesConfig is the ordered rule set for all K differentiated
// species. K is fixed for the lifetime of an iteration run; changing it
// rebuilds the NeighbourTables.
type SpeciesConfig struct {
	Groups []SpeciesGroup
}

// NumSpecies returns K, the number of differentiated species.
func (c SpeciesConfig) NumSpecies() int {
	return len(c.Groups)
}

var (
	// ErrEmptySpeciesConfig is returned when a SpeciesConfig has no groups.
	ErrEmptySpeciesConfig = errors.New("automaton3d: species config must have at least one species")
	// ErrTooManySpecies is returned when K exceeds K_MAX.
	ErrTooManySpecies = errors.New("automaton3d: species count exceeds K_MAX")
	// ErrNegativeRange is returned when any chemical range is negative.
	ErrNegativeRange = errors.New("automaton3d: chemical range must be >= 0")
)

// Validate checks the ConfigInvalid conditions from spec.md §4.1/§7:
// empty species list, negative range, K > K_MAX. It does not enforce
// demote.range >= promote.range, since some experiments probe that
// boundary deliberately (NeighbourTables construction degrades
// gracefully: the demote band is simply empty).
func (c SpeciesConfig) Validate() error {
	if len(c.Groups) == 0 {
		return ErrEmptySpeciesConfig
	}
	if len(c.Groups) > K_MAX {
		return ErrTooManySpecies
	}
	for _, g := range c.Groups {
		if g.Promote.Range < 0 || g.Demote.Range < 0 {
			return ErrNegativeRange
		}
	}
	return nil
}

// NewLegacyTwoBandConfig builds the single-species SpeciesConfig
// equivalent to the original two-band (differentiated-cell /
// undifferentiated-cell) rule: promote pushes toward species 1, demote
// pushes toward 0. This is the sign convention Design Notes §9 requires
// implementations to choose explicitly; it is a thin adapter over the
// unified K-species rule, not a separate code path (see kernel_update.go).
func NewLegacyTwoBandConfig(dcRange, dcInfluence, ucRange, ucInfluence float32) SpeciesConfig {
	return SpeciesConfig{
		Groups: []SpeciesGroup{
			{
				Promote: Chemical{Range: dcRange, Influence: dcInfluence},
				Demote:  Chemical{Range: ucRange, Influence: ucInfluence},
			},
		},
	}
}
