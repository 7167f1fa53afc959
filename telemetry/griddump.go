package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/brine/solver"
)

// CellRecord is one occupied grid cell in a diagnostic dump.
type CellRecord struct {
	Key       int32 `csv:"key"`
	Histogram int32 `csv:"histogram"`
	Start     int32 `csv:"start"`
	Count     int32 `csv:"count"`
}

// AssignmentRecord is one sorted-assignment slot in a diagnostic dump.
type AssignmentRecord struct {
	Slot     int   `csv:"slot"`
	Particle int32 `csv:"particle"`
	I        int32 `csv:"i"`
	J        int32 `csv:"j"`
	K        int32 `csv:"k"`
	Key      int32 `csv:"key"`
}

// GridSummary aggregates spatial-index state after a build.
type GridSummary struct {
	Cells         int
	OccupiedCells int
	MaxPerCell    int32
	Assigned      int
}

// DumpCells collects one record per occupied cell from the last build.
func DumpCells(g *solver.Grid) []CellRecord {
	hist := g.HistogramCounts()
	records := make([]CellRecord, 0, 64)
	for key := int32(0); int(key) < g.Cells(); key++ {
		if hist[key] == 0 {
			continue
		}
		start, count := g.Range(key)
		records = append(records, CellRecord{
			Key:       key,
			Histogram: hist[key],
			Start:     start,
			Count:     count,
		})
	}
	return records
}

// DumpAssignments collects the sorted assignment array from the last build.
func DumpAssignments(g *solver.Grid) []AssignmentRecord {
	sorted := g.Sorted()
	records := make([]AssignmentRecord, len(sorted))
	for slot, a := range sorted {
		records[slot] = AssignmentRecord{
			Slot:     slot,
			Particle: a.Particle,
			I:        a.I,
			J:        a.J,
			K:        a.K,
			Key:      a.Key,
		}
	}
	return records
}

// Summarize computes aggregate occupancy from the last build.
func Summarize(g *solver.Grid) GridSummary {
	s := GridSummary{Cells: g.Cells()}
	for _, c := range g.HistogramCounts() {
		if c == 0 {
			continue
		}
		s.OccupiedCells++
		s.Assigned += int(c)
		if c > s.MaxPerCell {
			s.MaxPerCell = c
		}
	}
	return s
}

// WriteGridDump writes cell and assignment diagnostics as CSV files.
func WriteGridDump(g *solver.Grid, cellsPath, assignmentsPath string) error {
	if err := writeCSV(cellsPath, DumpCells(g)); err != nil {
		return err
	}
	return writeCSV(assignmentsPath, DumpAssignments(g))
}

func writeCSV[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
