package service

import (
	"context"
	"net/http"
	"reflect"
	"testing"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/domain"
	"deadlock-tracker/internal/ranking"

	"github.com/rs/zerolog"
)

const heroStatsBody = `{"data":[
	{"hero_id":6,"wins":40,"losses":60,"matches":100},
	{"hero_id":13,"wins":8,"matches":10},
	{"hero_id":7,"wins":4,"matches":5},
	{"hero_id":1,"wins":0,"matches":0},
	{"hero_id":2,"wins":"150","matches":"300","total_kills":1500}
]}`

const itemStatsBody = `[
	{"item_id":100,"wins":30,"losses":10},
	{"item_id":200,"wins":5,"matches":20},
	{"item_id":300,"wins":0}
]`

func newLeaderboardService(t *testing.T, u *upstream) *LeaderboardService {
	t.Helper()
	return NewLeaderboardService(newTestAPIClient(t, u), fastRetrier(), zerolog.Nop())
}

func ids(lb *Leaderboard) []int64 {
	out := make([]int64, len(lb.Entries))
	for i, e := range lb.Entries {
		out[i] = e.ID
	}
	return out
}

func TestHeroWinrateLeaderboard(t *testing.T) {
	u := newUpstream()
	u.json("/v1/analytics/hero-stats", http.StatusOK, heroStatsBody)
	s := newLeaderboardService(t, u)

	lb, err := s.FetchHeroWinrateLeaderboard(context.Background(), 0, domain.DateRange{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := ids(lb); !reflect.DeepEqual(got, []int64{13, 7, 2, 6}) {
		t.Fatalf("unexpected order %v", got)
	}
	if lb.TotalMatches != 415 {
		t.Fatalf("unexpected total %d", lb.TotalMatches)
	}
	first := lb.Entries[0]
	if first.Name != "Haze" || first.WinrateRank == nil || *first.WinrateRank != 1 {
		t.Fatalf("unexpected first row %+v", first)
	}
}

func TestHeroPopularityLeaderboardJoinsFullWinrateRanking(t *testing.T) {
	u := newUpstream()
	u.json("/v1/analytics/hero-stats", http.StatusOK, heroStatsBody)
	s := newLeaderboardService(t, u)

	lb, err := s.FetchHeroPopularityLeaderboard(context.Background(), 2, domain.DateRange{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := ids(lb); !reflect.DeepEqual(got, []int64{2, 6}) {
		t.Fatalf("unexpected order %v", got)
	}
	if lb.TotalMatches != 415 {
		t.Fatalf("limit must not shrink the pick-rate denominator, got %d", lb.TotalMatches)
	}
	abrams := lb.Entries[1]
	if abrams.WinrateRank == nil || *abrams.WinrateRank != 4 || *abrams.WinrateValue != 0.4 {
		t.Fatalf("unexpected win-rate join %+v", abrams)
	}
	if abrams.PickRate != 100.0/415.0 {
		t.Fatalf("unexpected pick rate %v", abrams.PickRate)
	}
}

func TestPopularityLeaderboardIsIdempotent(t *testing.T) {
	u := newUpstream()
	u.json("/v1/analytics/hero-stats", http.StatusOK, heroStatsBody)
	s := newLeaderboardService(t, u)

	filters := domain.DateRange{}
	a, err := s.FetchHeroPopularityLeaderboard(context.Background(), 3, filters)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	b, err := s.FetchHeroPopularityLeaderboard(context.Background(), 3, filters)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical fetches differ")
	}
}

func TestItemLeaderboards(t *testing.T) {
	u := newUpstream()
	u.json("/v1/analytics/item-stats", http.StatusOK, itemStatsBody)
	s := newLeaderboardService(t, u)

	wr, err := s.FetchItemWinrateLeaderboard(context.Background(), 0, domain.DateRange{})
	if err != nil {
		t.Fatalf("winrate: %v", err)
	}
	if got := ids(wr); !reflect.DeepEqual(got, []int64{100, 200}) {
		t.Fatalf("unexpected winrate order %v", got)
	}
	if wr.Entries[0].Name != "Item #100" || wr.Entries[0].WinrateRank != nil {
		t.Fatalf("unexpected item row %+v", wr.Entries[0])
	}

	pop, err := s.FetchItemPopularityLeaderboard(context.Background(), 1, domain.DateRange{})
	if err != nil {
		t.Fatalf("popularity: %v", err)
	}
	if got := ids(pop); !reflect.DeepEqual(got, []int64{100}) || pop.TotalMatches != 60 {
		t.Fatalf("unexpected popularity %v total %d", got, pop.TotalMatches)
	}
}

func TestFetchDispatchesPanels(t *testing.T) {
	u := newUpstream()
	u.json("/v1/analytics/hero-stats", http.StatusOK, heroStatsBody)
	u.json("/v1/analytics/item-stats", http.StatusOK, itemStatsBody)
	s := newLeaderboardService(t, u)

	for _, def := range config.DefaultPanels() {
		lb, err := s.Fetch(context.Background(), def, domain.DateRange{})
		if err != nil {
			t.Fatalf("%s: %v", def.Key, err)
		}
		if string(lb.Entity) != def.Entity || string(lb.Mode) != def.Mode {
			t.Fatalf("%s: dispatched to %s/%s", def.Key, lb.Entity, lb.Mode)
		}
	}
	if _, err := s.Fetch(context.Background(), config.PanelDefinition{Entity: "rank", Mode: "winrate"}, domain.DateRange{}); err == nil {
		t.Fatalf("expected unknown entity error")
	}
}

func TestLeaderboardServerErrorIsRetried(t *testing.T) {
	u := newUpstream()
	u.json("/v1/analytics/hero-stats", http.StatusInternalServerError, `{"error":"boom"}`)
	s := newLeaderboardService(t, u)

	_, err := s.FetchHeroWinrateLeaderboard(context.Background(), 0, domain.DateRange{})
	if api.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected transport error, got %v", err)
	}
	if n := u.count("/v1/analytics/hero-stats"); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestHeroOverviewAndDistribution(t *testing.T) {
	u := newUpstream()
	u.json("/v1/analytics/hero-stats", http.StatusOK, heroStatsBody)
	u.json("/v1/players/mmr/distribution", http.StatusOK, `[{"rank":2,"players":75},{"rank":1,"players":25}]`)
	s := newLeaderboardService(t, u)

	overview, err := s.HeroOverview(context.Background(), domain.DateRange{})
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview) != 4 || overview[0].HeroID != 2 || overview[0].Averages.Kills == nil || *overview[0].Averages.Kills != 5 {
		t.Fatalf("unexpected overview %+v", overview)
	}
	if overview[0].Tier != ranking.TierB {
		t.Fatalf("unexpected tier %q", overview[0].Tier)
	}

	dist, err := s.RankDistribution(context.Background(), domain.DateRange{})
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(dist) != 2 || dist[0].Rank != 1 || dist[0].Percent != 25 {
		t.Fatalf("unexpected distribution %+v", dist)
	}
}
