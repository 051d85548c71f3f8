package feed

import (
	"sort"
	"strings"

	"github.com/histpatch/backend/internal/simdate"
	"github.com/histpatch/backend/internal/storage/models"
)

const (
	SortDateAsc  = "date-asc"
	SortDateDesc = "date-desc"

	RegionAll       = "all"
	RegionSolSystem = "sol_system"

	criticalEventType = "Critical Event"
	importanceLow     = "low"
)

// solSystemKeywords is the aggregate match set for the sol_system region
// token. A record belongs if its region contains any of these.
var solSystemKeywords = []string{"mars", "moon", "solar", "earth", "global_earth"}

// FilterState is the full set of user-selected feed criteria. Zero value
// means: no search, no periods, all regions, critical off, verbose off,
// newest first.
type FilterState struct {
	Search       string
	Region       string
	CriticalOnly bool
	Verbose      bool
	Sort         string
}

// FilterAndSort returns the records from selected shards that pass every
// predicate, ordered by parsed date value. Pure: the input slice is never
// mutated and the result is a fresh slice.
func FilterAndSort(records []models.LogRecord, selected []string, state FilterState) []models.LogRecord {
	selectedSet := make(map[string]bool, len(selected))
	for _, file := range selected {
		selectedSet[file] = true
	}

	out := make([]models.LogRecord, 0, len(records))
	for _, r := range records {
		if !selectedSet[r.Shard] {
			continue
		}
		if !matchesGranularity(r, state.Verbose) {
			continue
		}
		if !matchesSearch(r, state.Search) {
			continue
		}
		if !matchesRegion(r, state.Region) {
			continue
		}
		if !matchesSeverity(r, state.CriticalOnly) {
			continue
		}
		out = append(out, r)
	}

	ascending := state.Sort == SortDateAsc
	sort.SliceStable(out, func(i, j int) bool {
		a := simdate.ParseValue(out[i].Date)
		b := simdate.ParseValue(out[j].Date)
		if ascending {
			return a < b
		}
		return a > b
	})

	return out
}

func matchesGranularity(r models.LogRecord, verbose bool) bool {
	if verbose {
		return true
	}
	return r.Importance != importanceLow
}

func matchesSearch(r models.LogRecord, search string) bool {
	if search == "" {
		return true
	}

	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(r.Title), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle) ||
		strings.Contains(strings.ToLower(r.Version), needle) {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(strings.ToLower(kw), needle) {
			return true
		}
	}
	return false
}

func matchesRegion(r models.LogRecord, region string) bool {
	if region == "" || region == RegionAll {
		return true
	}

	recordRegion := strings.ToLower(r.Region)
	if region == RegionSolSystem {
		for _, kw := range solSystemKeywords {
			if strings.Contains(recordRegion, kw) {
				return true
			}
		}
		return false
	}

	// Substring, not exact: tolerates compound region names like Europe_West.
	return strings.Contains(recordRegion, strings.ToLower(region))
}

func matchesSeverity(r models.LogRecord, criticalOnly bool) bool {
	if !criticalOnly {
		return true
	}
	return r.Type == criticalEventType || r.IsActive
}

// Active returns every ongoing record, ignoring all other filter state.
// The ticker always shows the full active set.
func Active(records []models.LogRecord) []models.LogRecord {
	var active []models.LogRecord
	for _, r := range records {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active
}

// TickerSequence emits the active list twice back-to-back so the consuming
// marquee can loop seamlessly. Empty input yields an empty sequence.
func TickerSequence(active []models.LogRecord) []models.LogRecord {
	if len(active) == 0 {
		return []models.LogRecord{}
	}
	seq := make([]models.LogRecord, 0, len(active)*2)
	seq = append(seq, active...)
	seq = append(seq, active...)
	return seq
}
