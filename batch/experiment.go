// Package batch drives parameter sweeps over an automaton3d.Configurable
// kernel: it walks a Cartesian product of chemical-axis ranges, runs each
// resulting configuration for a fixed iteration count, and records one
// CSV row per leaf combination.
package batch

// ChemicalKind selects which half of a SpeciesGroup an Entry varies.
type ChemicalKind string

const (
	Promotor ChemicalKind = "promotor"
	Demotor  ChemicalKind = "demotor"
)

// Variable selects which field of the chosen Chemical an Entry varies.
type Variable string

const (
	VariableRange     Variable = "range"
	VariableInfluence Variable = "influence"
)

// Entry describes one sweep axis: species index s has its
// (chemical, variable) field walked from Min to Max in steps of Step,
// inclusive of Max.
type Entry struct {
	Species  int          `json:"species"`
	Chemical ChemicalKind `json:"chemical"`
	Variable Variable     `json:"variable"`
	Min      float32      `json:"min"`
	Max      float32      `json:"max"`
	Step     float32      `json:"step"`
}

// ExportAttribute names one column family a result row can include.
type ExportAttribute string

const (
	AttrNumberOfSpecies         ExportAttribute = "number-of-species"
	AttrChemValues              ExportAttribute = "chem-values"
	AttrOrderParameter          ExportAttribute = "order-parameter"
	AttrOrderParameterEvolution ExportAttribute = "order-parameter-evolution"
	AttrIterations              ExportAttribute = "iterations"
	AttrSimulationTime          ExportAttribute = "simulation-time"
)

// ExportEntry selects one column family for the result CSV, in the order
// it should appear.
type ExportEntry struct {
	Attribute ExportAttribute `json:"attribute"`
}

// Experiment is the full description of a sweep: the axes to vary, the
// columns to record, how long each leaf run lasts, and where to write
// the CSV.
type Experiment struct {
	Entries       []Entry       `json:"entries"`
	ExportEntries []ExportEntry `json:"export_entries"`
	Iterations    int           `json:"iterations"`
	FileName      string        `json:"file_name"`
	FloatingPoint string        `json:"floating_point"` // "dot" or "comma"
}
