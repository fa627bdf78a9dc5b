package toolstring

import "strings"

// Category is a coarse classification of a tool's function. The set is
// closed: anything outside the known values normalizes to CategoryOther.
type Category string

const (
	CategoryFishing     Category = "fishing"
	CategoryCompletion  Category = "completion"
	CategoryDrillstring Category = "drillstring"
	CategoryOther       Category = "other"
)

// Categories lists every known category, CategoryOther last.
func Categories() []Category {
	return []Category{CategoryFishing, CategoryCompletion, CategoryDrillstring, CategoryOther}
}

// ParseCategory matches s against the known categories, ignoring case.
// The boolean reports whether s named a known category; when it did not,
// the returned value is CategoryOther.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryFishing:
		return CategoryFishing, true
	case CategoryCompletion:
		return CategoryCompletion, true
	case CategoryDrillstring:
		return CategoryDrillstring, true
	case CategoryOther:
		return CategoryOther, true
	}
	return CategoryOther, false
}

// NormalizeCategory maps arbitrary ingest input to a known category,
// falling back to CategoryOther for unrecognized values.
func NormalizeCategory(s string) Category {
	c, _ := ParseCategory(s)
	return c
}

// Run is one recorded toolstring deployment. ID is the unique, URL-safe
// key; WellName may be anonymized. RunDate and Outcome are free-form text
// carried from the historical dataset.
type Run struct {
	ID       string `json:"run_id"`
	Name     string `json:"run_name"`
	WellName string `json:"well_name,omitempty"`
	RunDate  string `json:"run_date,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

// Placement is one tool's position and physical attributes within a
// specific run. Position is 1-based and unique within the run, defining
// the physical order of the toolstring. OD and length units are consistent
// across the dataset.
type Placement struct {
	RunID    string   `json:"-"`
	Position int      `json:"position"`
	ToolName string   `json:"tool_name"`
	OD       float64  `json:"od"`
	NeckOD   float64  `json:"neck_od,omitempty"`
	Length   float64  `json:"length"`
	Category Category `json:"category"`
}

// RunStats are the derived per-run statistics. They are never stored:
// ToolCount, TotalLength and MaxOD always equal a deterministic function
// of the run's placements. An empty run has all three at zero (the
// documented empty-aggregate convention — MaxOD is 0, not null).
type RunStats struct {
	ToolCount   int     `json:"tool_count"`
	TotalLength float64 `json:"total_length"`
	MaxOD       float64 `json:"max_od"`
}

// RunSummary is one entry in the run listing: run fields plus derived stats.
type RunSummary struct {
	Run
	RunStats
}

// RunDetail is a single run with its full ordered placement list and
// derived stats.
type RunDetail struct {
	Run
	Tools []Placement `json:"tools"`
	Stats RunStats    `json:"stats"`
}

// ToolUsageStat is a derived, read-only aggregate keyed by tool name,
// computed across all runs (or the category-filtered subset). Averages are
// exact means; no presentation rounding is applied.
type ToolUsageStat struct {
	ToolName   string   `json:"tool_name"`
	UsageCount int      `json:"usage_count"`
	AvgOD      float64  `json:"avg_od"`
	AvgLength  float64  `json:"avg_length"`
	Category   Category `json:"category"`
}

// AnalyticsSummary is the dataset-wide roll-up.
type AnalyticsSummary struct {
	TotalRuns           int     `json:"total_runs"`
	TotalTools          int     `json:"total_tools"`
	AvgToolstringLength float64 `json:"avg_toolstring_length"`
	MaxToolstringLength float64 `json:"max_toolstring_length"`
	AvgMaxOD            float64 `json:"avg_max_od"`
	AvgToolsPerRun      float64 `json:"avg_tools_per_run"`
}

// CategoryBreakdown is one category's share of all placements.
type CategoryBreakdown struct {
	Category  Category `json:"category"`
	Count     int      `json:"count"`
	AvgLength float64  `json:"avg_length"`
}

// AnalyticsReport is the payload for the analytics endpoint.
type AnalyticsReport struct {
	Summary    AnalyticsSummary    `json:"summary"`
	ByCategory []CategoryBreakdown `json:"by_category"`
}
