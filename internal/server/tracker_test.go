package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/database"
	"deadlock-tracker/internal/db"
	"deadlock-tracker/internal/repository"
	"deadlock-tracker/internal/service"

	"github.com/rs/zerolog"
)

type admitAll struct{}

func (admitAll) Consume(context.Context) error { return nil }

const heroStatsBody = `{"data":[
	{"hero_id":6,"wins":40,"matches":100},
	{"hero_id":13,"wins":8,"matches":10},
	{"hero_id":2,"wins":150,"matches":300}
]}`

const itemStatsBody = `[{"item_id":100,"wins":30,"matches":40}]`

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	upstream := http.NewServeMux()
	for path, body := range routes {
		upstream.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
	}
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	base, err := url.Parse(up.URL)
	if err != nil {
		t.Fatalf("parse upstream url: %v", err)
	}
	cfg := &config.Config{BaseURL: base, Panels: config.DefaultPanels()}
	logger := zerolog.Nop()

	client := api.NewClient(cfg, admitAll{}, nil, logger)
	retrier := service.NewRetrier(nil, logger)
	leaderboards := service.NewLeaderboardService(client, retrier, logger)

	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "server.db"), logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	players := service.NewPlayerService(client, repository.NewPlayerRepository(sqlDB, db.New(sqlDB), logger), retrier, logger)

	panels, err := service.NewPanelRegistry(cfg, leaderboards, nil, logger)
	if err != nil {
		t.Fatalf("panel registry: %v", err)
	}
	t.Cleanup(panels.Close)
	if err := panels.StartAll(); err != nil {
		t.Fatalf("start panels: %v", err)
	}

	mux := http.NewServeMux()
	NewTrackerServer(leaderboards, players, panels, logger).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

type leaderboardBody struct {
	Entries []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"entries"`
	TotalMatches int64 `json:"total_matches"`
}

func TestHeroLeaderboardEndpoint(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/v1/analytics/hero-stats": heroStatsBody})

	var lb leaderboardBody
	if status := getJSON(t, http.MethodGet, srv.URL+"/v1/heroes/leaderboard?mode=popularity&limit=2", "", &lb); status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].ID != 2 || lb.Entries[1].ID != 6 {
		t.Fatalf("unexpected entries %+v", lb.Entries)
	}
	if lb.TotalMatches != 410 {
		t.Fatalf("unexpected total %d", lb.TotalMatches)
	}
}

func TestLeaderboardRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/v1/analytics/hero-stats": heroStatsBody})

	for _, path := range []string{
		"/v1/heroes/leaderboard?mode=loudest",
		"/v1/heroes/leaderboard?limit=-1",
		"/v1/items/leaderboard?min_unix_timestamp=yesterday",
		"/v1/heroes/overview?min_unix_timestamp=20&max_unix_timestamp=10",
		"/v1/players/abc",
	} {
		if status := getJSON(t, http.MethodGet, srv.URL+path, "", nil); status != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, status)
		}
	}
}

func TestMalformedUpstreamIsBadGateway(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/v1/analytics/hero-stats": `{"data":[{"wins":1}]}`})

	var body map[string]string
	if status := getJSON(t, http.MethodGet, srv.URL+"/v1/heroes/overview", "", &body); status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if body["error"] != "data unavailable" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestUnknownPlayerIsNotAnError(t *testing.T) {
	srv := newTestServer(t, nil)

	var profile struct {
		AccountID int64 `json:"account_id"`
		Found     bool  `json:"found"`
	}
	if status := getJSON(t, http.MethodGet, srv.URL+"/v1/players/99", "", &profile); status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if profile.Found {
		t.Fatalf("expected found=false, got %+v", profile)
	}

	var lookups struct {
		Lookups []json.RawMessage `json:"lookups"`
	}
	getJSON(t, http.MethodGet, srv.URL+"/v1/players/lookups", "", &lookups)
	if len(lookups.Lookups) != 1 {
		t.Fatalf("expected the lookup to be recorded, got %d", len(lookups.Lookups))
	}
}

type panelState struct {
	Key          string  `json:"key"`
	HasData      bool    `json:"has_data"`
	IsFetching   bool    `json:"is_fetching"`
	IsRefreshing bool    `json:"is_refreshing"`
	Progress     float64 `json:"progress"`
}

func TestPanelLifecycle(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/v1/analytics/hero-stats": heroStatsBody,
		"/v1/analytics/item-stats": itemStatsBody,
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		var state panelState
		if status := getJSON(t, http.MethodGet, srv.URL+"/v1/panels/hero-winrate", "", &state); status != http.StatusOK {
			t.Fatalf("unexpected status %d", status)
		}
		if state.HasData {
			if !state.IsRefreshing || state.Progress >= 100 {
				t.Fatalf("animation must still be running after a fast fetch: %+v", state)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("panel never loaded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var applied struct {
		Changed bool `json:"changed"`
	}
	if status := getJSON(t, http.MethodPost, srv.URL+"/v1/panels/hero-winrate/filters", `{}`, &applied); status != http.StatusAccepted {
		t.Fatalf("unexpected status %d", status)
	}
	if applied.Changed {
		t.Fatalf("identical filters must not trigger a fetch")
	}
	getJSON(t, http.MethodPost, srv.URL+"/v1/panels/hero-winrate/filters", `{"min_unix_timestamp":100}`, &applied)
	if !applied.Changed {
		t.Fatalf("new filters must trigger a fetch")
	}

	var refreshed panelState
	if status := getJSON(t, http.MethodPost, srv.URL+"/v1/panels/item-popularity/refresh", "", &refreshed); status != http.StatusAccepted {
		t.Fatalf("unexpected status %d", status)
	}
	if !refreshed.IsRefreshing {
		t.Fatalf("refresh must restart the animation: %+v", refreshed)
	}

	var list struct {
		Panels []json.RawMessage `json:"panels"`
	}
	getJSON(t, http.MethodGet, srv.URL+"/v1/panels", "", &list)
	if len(list.Panels) != len(config.DefaultPanels()) {
		t.Fatalf("expected every configured panel, got %d", len(list.Panels))
	}

	if status := getJSON(t, http.MethodGet, srv.URL+"/v1/panels/nope", "", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown panel, got %d", status)
	}
}
