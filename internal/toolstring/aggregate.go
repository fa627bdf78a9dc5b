package toolstring

import (
	"context"
	"fmt"
	"sort"
)

// Store is the record-store capability the aggregation core depends on.
// Implementations return raw rows in no guaranteed order; all ordering and
// derivation happens here. A runID of "" passed to FetchPlacements means
// placements across all runs.
type Store interface {
	FetchRuns(ctx context.Context) ([]Run, error)
	FetchRun(ctx context.Context, id string) (Run, bool, error)
	FetchPlacements(ctx context.Context, runID string) ([]Placement, error)
	CountRuns(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Default limits applied when the configuration leaves them zero.
const (
	DefaultLimit = 50
	DefaultMax   = 1000
)

// Limits is the result-size configuration for the aggregator. Default caps
// tool-stat listings when the caller gives no limit; Max bounds any
// caller-supplied limit (values above it are rejected, never clamped).
type Limits struct {
	Default int
	Max     int
}

func (l Limits) withDefaults() Limits {
	if l.Default <= 0 {
		l.Default = DefaultLimit
	}
	if l.Max <= 0 {
		l.Max = DefaultMax
	}
	return l
}

// Aggregator derives run and tool statistics from raw record-store rows.
// It is stateless per call and safe for concurrent use.
type Aggregator struct {
	store  Store
	limits Limits
}

// NewAggregator wires the aggregation core to a record store. Zero fields
// in lim fall back to DefaultLimit / DefaultMax.
func NewAggregator(st Store, lim Limits) *Aggregator {
	return &Aggregator{store: st, limits: lim.withDefaults()}
}

// Run-listing sort fields. Unknown values fall back to SortByRunID — the
// same silent-fallback policy the listing has always had for sort_by.
const (
	SortByRunID       = "run_id"
	SortByRunName     = "run_name"
	SortByToolCount   = "tool_count"
	SortByTotalLength = "total_length"
	SortByMaxOD       = "max_od"
)

// ListRunsOptions controls ordering and truncation of the run listing.
type ListRunsOptions struct {
	// SortBy is one of the SortBy* constants; empty or unknown values sort
	// by run_id.
	SortBy string
	// Order is "asc" or "desc"; empty or unknown values mean ascending.
	Order string
	// Limit truncates the result when positive; 0 returns all runs.
	// Negative values are invalid.
	Limit int
}

// ListRuns returns a summary for every run, with tool_count, total_length
// and max_od derived from the run's placements. Ordering is deterministic:
// the requested sort field with run_id ascending as the tiebreak. An empty
// store yields an empty slice, not an error.
func (a *Aggregator) ListRuns(ctx context.Context, opts ListRunsOptions) ([]RunSummary, error) {
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidArgument)
	}
	if opts.Limit > a.limits.Max {
		return nil, fmt.Errorf("%w: limit %d exceeds maximum %d", ErrInvalidArgument, opts.Limit, a.limits.Max)
	}

	runs, err := a.store.FetchRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch runs: %w", err)
	}
	placements, err := a.store.FetchPlacements(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch placements: %w", err)
	}

	byRun := make(map[string][]Placement, len(runs))
	for _, p := range placements {
		byRun[p.RunID] = append(byRun[p.RunID], p)
	}

	out := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunSummary{Run: r, RunStats: deriveStats(byRun[r.ID])})
	}
	sortSummaries(out, opts.SortBy, opts.Order == "desc")

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// GetRun returns the run with the given identifier (exact, case-sensitive
// match) together with its placements ordered by position and the derived
// stats. A run with zero placements is a valid result; a missing run is
// ErrNotFound and an empty id is ErrInvalidArgument.
func (a *Aggregator) GetRun(ctx context.Context, id string) (RunDetail, error) {
	if id == "" {
		return RunDetail{}, fmt.Errorf("%w: run id must not be empty", ErrInvalidArgument)
	}

	run, found, err := a.store.FetchRun(ctx, id)
	if err != nil {
		return RunDetail{}, fmt.Errorf("fetch run %q: %w", id, err)
	}
	if !found {
		return RunDetail{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	placements, err := a.store.FetchPlacements(ctx, id)
	if err != nil {
		return RunDetail{}, fmt.Errorf("fetch placements for %q: %w", id, err)
	}
	sort.Slice(placements, func(i, j int) bool { return placements[i].Position < placements[j].Position })
	if placements == nil {
		placements = []Placement{}
	}

	return RunDetail{Run: run, Tools: placements, Stats: deriveStats(placements)}, nil
}

// ToolStatsOptions controls the tool usage statistics listing.
type ToolStatsOptions struct {
	// Category restricts group membership before aggregating. Matching is
	// case-insensitive; a value outside the known set yields an empty
	// result rather than an error (documented policy).
	Category string
	// Limit caps the number of returned rows; 0 means the configured
	// default. Negative or over-maximum values are invalid.
	Limit int
	// MinUsage drops groups with fewer placements; 0 means 1.
	MinUsage int
}

// ListToolStats groups placements across all runs by tool name and returns
// usage count and average OD/length per name, most used first with
// tool_name ascending as the tiebreak. When a category filter is given the
// restriction applies before aggregating, so a name with no matching
// placements is dropped entirely rather than shown with zero counts.
func (a *Aggregator) ListToolStats(ctx context.Context, opts ToolStatsOptions) ([]ToolUsageStat, error) {
	limit := opts.Limit
	switch {
	case limit == 0:
		limit = a.limits.Default
	case limit < 0:
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidArgument)
	case limit > a.limits.Max:
		return nil, fmt.Errorf("%w: limit %d exceeds maximum %d", ErrInvalidArgument, limit, a.limits.Max)
	}
	minUsage := opts.MinUsage
	switch {
	case minUsage == 0:
		minUsage = 1
	case minUsage < 0:
		return nil, fmt.Errorf("%w: min_usage must be positive", ErrInvalidArgument)
	}

	var filter Category
	filtered := opts.Category != ""
	if filtered {
		c, known := ParseCategory(opts.Category)
		if !known {
			// Unknown category: empty result, not an error.
			return []ToolUsageStat{}, nil
		}
		filter = c
	}

	placements, err := a.store.FetchPlacements(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch placements: %w", err)
	}

	type group struct {
		count            int
		sumOD, sumLength float64
		category         Category
	}
	groups := make(map[string]*group)
	for _, p := range placements {
		if filtered && p.Category != filter {
			continue
		}
		g, ok := groups[p.ToolName]
		if !ok {
			g = &group{category: p.Category}
			groups[p.ToolName] = g
		}
		g.count++
		g.sumOD += p.OD
		g.sumLength += p.Length
	}

	out := make([]ToolUsageStat, 0, len(groups))
	for name, g := range groups {
		if g.count < minUsage {
			continue
		}
		out = append(out, ToolUsageStat{
			ToolName:   name,
			UsageCount: g.count,
			AvgOD:      g.sumOD / float64(g.count),
			AvgLength:  g.sumLength / float64(g.count),
			Category:   g.category,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].ToolName < out[j].ToolName
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Analytics returns the dataset-wide summary plus a per-category breakdown
// of all placements, ordered by count descending with category ascending as
// the tiebreak.
func (a *Aggregator) Analytics(ctx context.Context) (AnalyticsReport, error) {
	runs, err := a.store.FetchRuns(ctx)
	if err != nil {
		return AnalyticsReport{}, fmt.Errorf("fetch runs: %w", err)
	}
	placements, err := a.store.FetchPlacements(ctx, "")
	if err != nil {
		return AnalyticsReport{}, fmt.Errorf("fetch placements: %w", err)
	}

	byRun := make(map[string][]Placement, len(runs))
	for _, p := range placements {
		byRun[p.RunID] = append(byRun[p.RunID], p)
	}

	report := AnalyticsReport{
		Summary: AnalyticsSummary{
			TotalRuns:  len(runs),
			TotalTools: len(placements),
		},
		ByCategory: []CategoryBreakdown{},
	}

	if len(runs) > 0 {
		var sumLength, sumMaxOD float64
		for _, r := range runs {
			stats := deriveStats(byRun[r.ID])
			sumLength += stats.TotalLength
			sumMaxOD += stats.MaxOD
			if stats.TotalLength > report.Summary.MaxToolstringLength {
				report.Summary.MaxToolstringLength = stats.TotalLength
			}
		}
		n := float64(len(runs))
		report.Summary.AvgToolstringLength = sumLength / n
		report.Summary.AvgMaxOD = sumMaxOD / n
		report.Summary.AvgToolsPerRun = float64(len(placements)) / n
	}

	type catAgg struct {
		count     int
		sumLength float64
	}
	byCat := make(map[Category]*catAgg)
	for _, p := range placements {
		c, ok := byCat[p.Category]
		if !ok {
			c = &catAgg{}
			byCat[p.Category] = c
		}
		c.count++
		c.sumLength += p.Length
	}
	for cat, agg := range byCat {
		report.ByCategory = append(report.ByCategory, CategoryBreakdown{
			Category:  cat,
			Count:     agg.count,
			AvgLength: agg.sumLength / float64(agg.count),
		})
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		bi, bj := report.ByCategory[i], report.ByCategory[j]
		if bi.Count != bj.Count {
			return bi.Count > bj.Count
		}
		return bi.Category < bj.Category
	})

	return report, nil
}

// deriveStats computes the per-run aggregates from raw placements. An
// empty run yields the zero value: tool_count 0, total_length 0, max_od 0.
func deriveStats(placements []Placement) RunStats {
	stats := RunStats{ToolCount: len(placements)}
	for _, p := range placements {
		stats.TotalLength += p.Length
		if p.OD > stats.MaxOD {
			stats.MaxOD = p.OD
		}
	}
	return stats
}

// sortSummaries orders run summaries by the given field with run_id
// ascending as the tiebreak. Unknown fields sort by run_id.
func sortSummaries(runs []RunSummary, sortBy string, desc bool) {
	key := func(i, j int) (less, eq bool) {
		a, b := runs[i], runs[j]
		switch sortBy {
		case SortByRunName:
			return a.Name < b.Name, a.Name == b.Name
		case SortByToolCount:
			return a.ToolCount < b.ToolCount, a.ToolCount == b.ToolCount
		case SortByTotalLength:
			return a.TotalLength < b.TotalLength, a.TotalLength == b.TotalLength
		case SortByMaxOD:
			return a.MaxOD < b.MaxOD, a.MaxOD == b.MaxOD
		default:
			return a.ID < b.ID, false
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		less, eq := key(i, j)
		if eq {
			return runs[i].ID < runs[j].ID
		}
		if desc {
			return !less
		}
		return less
	})
}
