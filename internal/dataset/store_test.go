package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, shards map[string]string, manifest string, hits *sync.Map) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v, ok := hits.Load(r.URL.Path); ok {
			hits.Store(r.URL.Path, v.(int)+1)
		} else {
			hits.Store(r.URL.Path, 1)
		}

		if r.URL.Path == "/logs/manifest.json" {
			fmt.Fprint(w, manifest)
			return
		}
		for file, body := range shards {
			if r.URL.Path == "/logs/"+file {
				fmt.Fprint(w, body)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func hitCount(hits *sync.Map, path string) int {
	if v, ok := hits.Load(path); ok {
		return v.(int)
	}
	return 0
}

func TestLoadIsIdempotent(t *testing.T) {
	var hits sync.Map
	srv := newTestServer(t, map[string]string{
		"yearly/2026.json": `[{"id":1,"title":"Mars Colony Founded","date":"2026","region":"Mars_Colony","is_active":true}]`,
	}, `{}`, &hits)
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)

	require.NoError(t, store.Load(context.Background(), "yearly/2026.json"))
	require.NoError(t, store.Load(context.Background(), "yearly/2026.json"))

	assert.Equal(t, 1, hitCount(&hits, "/logs/yearly/2026.json"))
	assert.Len(t, store.Merged(), 1)
}

func TestConcurrentFirstLoadsFetchOnce(t *testing.T) {
	var fetches int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&fetches, 1)
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, `[{"id":"a","title":"Event","date":"1945","region":"Europe_West"}]`)
	}))
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Load(context.Background(), "yearly/1945.json"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&fetches))
	assert.Len(t, store.Merged(), 1)
}

func TestLoadFailureLeavesShardAbsent(t *testing.T) {
	var hits sync.Map
	srv := newTestServer(t, map[string]string{
		"yearly/2026.json": `[{"id":1,"title":"Mars Colony Founded","date":"2026","region":"Mars_Colony"}]`,
	}, `{}`, &hits)
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)

	err := store.Load(context.Background(), "yearly/1999.json")
	assert.Error(t, err)
	assert.False(t, store.Loaded("yearly/1999.json"))

	// Other shards still load fine.
	require.NoError(t, store.Load(context.Background(), "yearly/2026.json"))
	assert.Len(t, store.Merged(), 1)
}

func TestMergedPreservesInsertionOrder(t *testing.T) {
	var hits sync.Map
	srv := newTestServer(t, map[string]string{
		"yearly/1969.json": `[{"id":"m","title":"Moon Landing","date":"1969","region":"Moon"}]`,
		"yearly/2026.json": `[{"id":"c","title":"Mars Colony Founded","date":"2026","region":"Mars_Colony"}]`,
	}, `{}`, &hits)
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)

	require.NoError(t, store.Load(context.Background(), "yearly/2026.json"))
	require.NoError(t, store.Load(context.Background(), "yearly/1969.json"))

	merged := store.Merged()
	require.Len(t, merged, 2)
	assert.Equal(t, "Mars Colony Founded", merged[0].Title)
	assert.Equal(t, "Moon Landing", merged[1].Title)
}

func TestRecordsTaggedWithShard(t *testing.T) {
	var hits sync.Map
	srv := newTestServer(t, map[string]string{
		"yearly/1969.json": `[{"id":"m","title":"Moon Landing","date":"1969","region":"Moon"}]`,
	}, `{}`, &hits)
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)
	require.NoError(t, store.Load(context.Background(), "yearly/1969.json"))

	merged := store.Merged()
	require.Len(t, merged, 1)
	assert.Equal(t, "yearly/1969.json", merged[0].Shard)
}

func TestLoadManifestAutoloadsCurrentYear(t *testing.T) {
	var hits sync.Map
	manifest := `{"current_year":2026,"years_available":[{"year":2026,"file":"yearly/2026.json"}],"eras":[]}`
	srv := newTestServer(t, map[string]string{
		"yearly/2026.json": `[{"id":1,"title":"Mars Colony Founded","date":"2026","region":"Mars_Colony","is_active":true}]`,
	}, manifest, &hits)
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)
	require.NoError(t, store.LoadManifest(context.Background()))

	require.NotNil(t, store.Manifest())
	assert.Equal(t, 2026, store.Manifest().CurrentYear)
	assert.True(t, store.Loaded("yearly/2026.json"))

	merged := store.Merged()
	require.Len(t, merged, 1)
	assert.True(t, merged[0].IsActive)
}

func TestLoadManifestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)
	assert.Error(t, store.LoadManifest(context.Background()))
}

func TestFlexIDHandlesNumericAndString(t *testing.T) {
	var hits sync.Map
	srv := newTestServer(t, map[string]string{
		"yearly/mixed.json": `[{"id":42,"title":"A","date":"1945","region":"x"},{"id":"evt-7","title":"B","date":"1946","region":"x"}]`,
	}, `{}`, &hits)
	defer srv.Close()

	store := NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)
	require.NoError(t, store.Load(context.Background(), "yearly/mixed.json"))

	merged := store.Merged()
	require.Len(t, merged, 2)
	assert.Equal(t, "42", merged[0].ID.String())
	assert.Equal(t, "evt-7", merged[1].ID.String())
}
