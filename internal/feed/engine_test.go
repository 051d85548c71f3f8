package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/histpatch/backend/internal/simdate"
	"github.com/histpatch/backend/internal/storage/models"
)

func testRecords() []models.LogRecord {
	return []models.LogRecord{
		{ID: "1", Title: "Fall of Rome", Date: "476", Region: "Europe_South", Type: "Critical Event", Shard: "eras/antiquity.json"},
		{ID: "2", Title: "Moon Landing", Date: "1969", Region: "Moon", Version: "v1969.7", Shard: "yearly/1969.json"},
		{ID: "3", Title: "Minor Border Dispute", Date: "1969", Region: "Europe_West", Importance: "low", Shard: "yearly/1969.json"},
		{ID: "4", Title: "Mars Colony Founded", Date: "2026", Region: "Mars_Colony", IsActive: true, Shard: "yearly/2026.json"},
		{ID: "5", Title: "Dinosaur Extinction", Date: "65 Million BC", Region: "Global_Earth", Type: "Critical Event", Keywords: []string{"asteroid", "extinction"}, Shard: "eras/prehistory.json"},
	}
}

func allShards() []string {
	return []string{"eras/antiquity.json", "yearly/1969.json", "yearly/2026.json", "eras/prehistory.json"}
}

func TestFilterAndSortMembership(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, []string{"yearly/1969.json"}, FilterState{Verbose: true})

	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, "yearly/1969.json", r.Shard)
	}
}

func TestFilterAndSortUnselectedShardExcluded(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, []string{"yearly/2026.json"}, FilterState{Verbose: true})

	require.Len(t, out, 1)
	assert.Equal(t, "Mars Colony Founded", out[0].Title)
}

func TestGranularityToggle(t *testing.T) {
	records := testRecords()

	hidden := FilterAndSort(records, allShards(), FilterState{Verbose: false})
	for _, r := range hidden {
		assert.NotEqual(t, "low", r.Importance)
	}

	shown := FilterAndSort(records, allShards(), FilterState{Verbose: true})
	assert.Len(t, shown, len(records))
}

func TestSearchMatchesKeywords(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Search: "ASTEROID", Verbose: true})

	require.Len(t, out, 1)
	assert.Equal(t, "Dinosaur Extinction", out[0].Title)
}

func TestSearchMatchesVersion(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Search: "v1969", Verbose: true})

	require.Len(t, out, 1)
	assert.Equal(t, "Moon Landing", out[0].Title)
}

func TestSearchEmptyMatchesAll(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Search: "", Verbose: true})

	assert.Len(t, out, len(records))
}

func TestRegionSolSystem(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Region: RegionSolSystem, Verbose: true})

	titles := make([]string, 0, len(out))
	for _, r := range out {
		titles = append(titles, r.Title)
	}
	assert.Contains(t, titles, "Mars Colony Founded")
	assert.Contains(t, titles, "Moon Landing")
	assert.Contains(t, titles, "Dinosaur Extinction")
	assert.NotContains(t, titles, "Minor Border Dispute")
}

func TestRegionSubstringMatch(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Region: "europe", Verbose: true})

	require.Len(t, out, 2)
	for _, r := range out {
		assert.Contains(t, r.Region, "Europe")
	}
}

func TestCriticalOnly(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{CriticalOnly: true, Verbose: true})

	for _, r := range out {
		assert.True(t, r.Type == "Critical Event" || r.IsActive)
	}
	require.Len(t, out, 3)
}

func TestSortDescendingDefault(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Verbose: true})

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t,
			simdate.ParseValue(out[i-1].Date),
			simdate.ParseValue(out[i].Date),
		)
	}
}

func TestSortAscending(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Sort: SortDateAsc, Verbose: true})

	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t,
			simdate.ParseValue(out[i-1].Date),
			simdate.ParseValue(out[i].Date),
		)
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	records := testRecords()

	out := FilterAndSort(records, allShards(), FilterState{Sort: SortDateAsc, Verbose: true})

	// Two 1969 records tie; stable sort keeps input order.
	var tied []string
	for _, r := range out {
		if r.Date == "1969" {
			tied = append(tied, r.Title)
		}
	}
	assert.Equal(t, []string{"Moon Landing", "Minor Border Dispute"}, tied)
}

func TestInputNotMutated(t *testing.T) {
	records := testRecords()
	original := make([]models.LogRecord, len(records))
	copy(original, records)

	FilterAndSort(records, allShards(), FilterState{Sort: SortDateAsc, Verbose: true})

	assert.Equal(t, original, records)
}

func TestActiveIgnoresFilterState(t *testing.T) {
	records := testRecords()

	// Ticker selection has no filter inputs at all; compare against the feed
	// with criticalOnly toggled both ways to show independence.
	active := Active(records)
	require.Len(t, active, 1)
	assert.Equal(t, "Mars Colony Founded", active[0].Title)

	FilterAndSort(records, allShards(), FilterState{CriticalOnly: true})
	activeAfter := Active(records)
	assert.Equal(t, active, activeAfter)
}

func TestTickerSequenceDuplicates(t *testing.T) {
	active := []models.LogRecord{{ID: "4", Title: "Mars Colony Founded", IsActive: true}}

	seq := TickerSequence(active)

	require.Len(t, seq, 2)
	assert.Equal(t, seq[0], seq[1])
}

func TestTickerSequenceEmpty(t *testing.T) {
	assert.Empty(t, TickerSequence(nil))
}
