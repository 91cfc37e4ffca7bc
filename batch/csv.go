package batch

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cellsort/automaton3d"
)

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// csvWriter emits the ';'-separated, "\r\n"-terminated result rows,
// applying the experiment's decimal-separator choice to every numeric
// field written.
type csvWriter struct {
	file  *os.File
	comma bool
}

// writeHeader writes the column-label row. numSpecies fixes the width of
// the "chem-values" column family, read once before the sweep starts; a
// sweep that varies the species count itself still gets one header sized
// from the starting configuration, matching the original source's
// single-header-row convention.
func (w *csvWriter) writeHeader(experiment *Experiment, numSpecies int) error {
	var line string
	for _, entry := range experiment.ExportEntries {
		switch entry.Attribute {
		case AttrNumberOfSpecies:
			line += "Number or species;"
		case AttrChemValues:
			for i := 0; i < numSpecies; i++ {
				line += fmt.Sprintf("S%d Promotor Range;", i)
				line += fmt.Sprintf("S%d Promotor Influence;", i)
				line += fmt.Sprintf("S%d Demotor Range;", i)
				line += fmt.Sprintf("S%d Demotor Influence;", i)
			}
		case AttrOrderParameter:
			for s := 0; s <= numSpecies; s++ {
				line += fmt.Sprintf("Order parameter species %d;", s)
			}
		case AttrOrderParameterEvolution:
			// Iteration 0 is the seeded state SpreadRandom records, so
			// there are Iterations+1 recorded vectors.
			for i := 0; i <= experiment.Iterations; i++ {
				for s := 0; s <= numSpecies; s++ {
					line += fmt.Sprintf("OP iter %d species %d;", i, s)
				}
			}
		case AttrIterations:
			line += "Number of iterations;"
		case AttrSimulationTime:
			line += "Simulation time;"
		}
	}
	line += "\r\n"
	_, err := w.file.WriteString(line)
	return err
}

// writeRow writes one data row for the kernel's current state: the
// species count and chemical values reflect the configuration the leaf
// run used, the order-parameter and iteration counters its outcome.
func (w *csvWriter) writeRow(k automaton3d.Configurable, experiment *Experiment, simTime float64) error {
	cfg := k.SpeciesConfig()
	var line string
	for _, entry := range experiment.ExportEntries {
		switch entry.Attribute {
		case AttrNumberOfSpecies:
			line += strconv.Itoa(cfg.NumSpecies()) + ";"
		case AttrChemValues:
			for _, group := range cfg.Groups {
				line += formatFloat(group.Promote.Range, w.comma) + ";"
				line += formatFloat(group.Promote.Influence, w.comma) + ";"
				line += formatFloat(group.Demote.Range, w.comma) + ";"
				line += formatFloat(group.Demote.Influence, w.comma) + ";"
			}
		case AttrOrderParameter:
			// One column per component of the last recorded ε vector.
			for _, v := range k.LastOrderParameter() {
				line += formatFloat(v, w.comma) + ";"
			}
		case AttrOrderParameterEvolution:
			// Flattened in iteration-major order: for each recorded
			// iteration, every species' eps value, species-major within
			// the iteration. PerSpeciesSeries (OrderParameters) is
			// species-major, so this transposes it back.
			for _, v := range flattenIterationMajor(k.OrderParameters()) {
				line += formatFloat(v, w.comma) + ";"
			}
		case AttrIterations:
			line += strconv.Itoa(k.IterationCount()) + ";"
		case AttrSimulationTime:
			line += formatFloat(float32(simTime), w.comma) + ";"
		}
	}
	line += "\r\n"
	_, err := w.file.WriteString(line)
	return err
}

// flattenIterationMajor transposes a species-major [][]float32 (one
// series per species, one entry per iteration) into a flat slice ordered
// iteration-major: every species' value for iteration 0, then every
// species' value for iteration 1, and so on.
func flattenIterationMajor(series [][]float32) []float32 {
	if len(series) == 0 {
		return nil
	}
	iterations := len(series[0])
	out := make([]float32, 0, iterations*len(series))
	for i := 0; i < iterations; i++ {
		for _, s := range series {
			out = append(out, s[i])
		}
	}
	return out
}
