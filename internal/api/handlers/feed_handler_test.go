package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/histpatch/backend/internal/dataset"
)

func newTestApp(t *testing.T) (*fiber.App, *dataset.Store) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logs/manifest.json":
			fmt.Fprint(w, `{"current_year":2026,"years_available":[{"year":2026,"file":"yearly/2026.json"}],"eras":[]}`)
		case "/logs/yearly/2026.json":
			fmt.Fprint(w, `[{"id":1,"version":"v2026.1","date":"2026","title":"Mars Colony Founded","description":"First permanent settlement.","type":"Critical Event","region":"Mars_Colony","is_active":true}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	store := dataset.NewStore(srv.URL, "logs/manifest.json", "logs", 5*time.Second, nil)
	require.NoError(t, store.LoadManifest(context.Background()))

	app := fiber.New()
	feedHandler := NewFeedHandler(store)
	tickerHandler := NewTickerHandler(store)
	app.Get("/api/v1/manifest", feedHandler.GetManifest)
	app.Get("/api/v1/feed", feedHandler.GetFeed)
	app.Get("/api/v1/ticker", tickerHandler.GetTicker)

	return app, store
}

func getJSON(t *testing.T, app *fiber.App, url string) map[string]interface{} {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestFeedDefaultsToCurrentYearShard(t *testing.T) {
	app, _ := newTestApp(t)

	out := getJSON(t, app, "/api/v1/feed")

	assert.Equal(t, float64(1), out["total"])
	records := out["records"].([]interface{})
	require.Len(t, records, 1)

	record := records[0].(map[string]interface{})
	assert.Equal(t, "Mars Colony Founded", record["title"])
	assert.Equal(t, "yearly/2026.json", record["shard"])
	assert.Equal(t, "future", record["era"])
}

func TestTickerDuplicatesActiveRecords(t *testing.T) {
	app, _ := newTestApp(t)

	out := getJSON(t, app, "/api/v1/ticker")

	assert.Equal(t, false, out["placeholder"])
	records := out["records"].([]interface{})
	require.Len(t, records, 2)
}

func TestTickerIgnoresFeedFilters(t *testing.T) {
	app, _ := newTestApp(t)

	// A feed request with aggressive filters must not change the ticker.
	getJSON(t, app, "/api/v1/feed?critical=true&search=nothing-matches&region=antarctica")
	out := getJSON(t, app, "/api/v1/ticker")

	records := out["records"].([]interface{})
	assert.Len(t, records, 2)
}

func TestFeedUnknownShardYieldsFewerRecords(t *testing.T) {
	app, _ := newTestApp(t)

	out := getJSON(t, app, "/api/v1/feed?periods=yearly/1999.json")

	assert.Equal(t, float64(0), out["total"])
}

func TestManifestEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	out := getJSON(t, app, "/api/v1/manifest")

	assert.Equal(t, float64(2026), out["current_year"])
}
