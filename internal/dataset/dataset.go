package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/welltegra/welltegra-api/internal/toolstring"
)

// Tool is one placement row in the ingest format.
type Tool struct {
	Position int     `json:"position"`
	ToolName string  `json:"tool_name"`
	OD       float64 `json:"od"`
	NeckOD   float64 `json:"neck_od,omitempty"`
	Length   float64 `json:"length"`
	Category string  `json:"category"`
}

// Run is one run row with its nested tools.
type Run struct {
	RunID    string `json:"run_id"`
	RunName  string `json:"run_name"`
	WellName string `json:"well_name,omitempty"`
	RunDate  string `json:"run_date,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Tools    []Tool `json:"tools"`
}

// Dataset is the root of a dataset file.
type Dataset struct {
	Runs []Run `json:"runs"`
}

// Load reads and parses the dataset file at path.
func Load(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset: %q: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates a dataset from r.
func Parse(r io.Reader) (Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("parse json: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Validate checks the structural invariants of the dataset: unique
// non-empty run ids, named runs, and per-run unique positive positions
// with od > 0 and length >= 0. A run with zero tools is valid.
func (d Dataset) Validate() error {
	seen := make(map[string]bool, len(d.Runs))
	for i, r := range d.Runs {
		if r.RunID == "" {
			return fmt.Errorf("run %d: run_id must not be empty", i)
		}
		if r.RunName == "" {
			return fmt.Errorf("run %q: run_name must not be empty", r.RunID)
		}
		if seen[r.RunID] {
			return fmt.Errorf("run %q: duplicate run_id", r.RunID)
		}
		seen[r.RunID] = true

		positions := make(map[int]bool, len(r.Tools))
		for _, t := range r.Tools {
			if t.Position < 1 {
				return fmt.Errorf("run %q: tool %q: position %d must be >= 1", r.RunID, t.ToolName, t.Position)
			}
			if positions[t.Position] {
				return fmt.Errorf("run %q: duplicate position %d", r.RunID, t.Position)
			}
			positions[t.Position] = true
			if t.ToolName == "" {
				return fmt.Errorf("run %q: position %d: tool_name must not be empty", r.RunID, t.Position)
			}
			if t.OD <= 0 {
				return fmt.Errorf("run %q: tool %q: od %v must be positive", r.RunID, t.ToolName, t.OD)
			}
			if t.Length < 0 {
				return fmt.Errorf("run %q: tool %q: length %v must not be negative", r.RunID, t.ToolName, t.Length)
			}
		}
	}
	return nil
}

// Split converts the nested ingest format into flat domain rows, with
// categories normalized.
func (d Dataset) Split() ([]toolstring.Run, []toolstring.Placement) {
	runs := make([]toolstring.Run, 0, len(d.Runs))
	var placements []toolstring.Placement
	for _, r := range d.Runs {
		runs = append(runs, toolstring.Run{
			ID:       r.RunID,
			Name:     r.RunName,
			WellName: r.WellName,
			RunDate:  r.RunDate,
			Outcome:  r.Outcome,
		})
		for _, t := range r.Tools {
			placements = append(placements, toolstring.Placement{
				RunID:    r.RunID,
				Position: t.Position,
				ToolName: t.ToolName,
				OD:       t.OD,
				NeckOD:   t.NeckOD,
				Length:   t.Length,
				Category: toolstring.NormalizeCategory(t.Category),
			})
		}
	}
	return runs, placements
}
