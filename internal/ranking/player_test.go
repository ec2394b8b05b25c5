package ranking

import (
	"math"
	"testing"

	"deadlock-tracker/internal/api"
)

func sampleStats() []api.PlayerHeroStat {
	return []api.PlayerHeroStat{
		{AccountID: 1, HeroID: 10, MatchesPlayed: 20, Wins: 12, Kills: 80, Deaths: 40, Assists: 60},
		{AccountID: 1, HeroID: 11, MatchesPlayed: 8, Wins: 5, Kills: 30, Deaths: 20, Assists: 25},
	}
}

func TestBuildHeroRowsDerivesWinRateAndKDA(t *testing.T) {
	rows := BuildHeroRows(sampleStats())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].HeroID != 10 || rows[0].Matches != 20 || rows[0].Wins != 12 || rows[0].WinRate != 0.6 {
		t.Fatalf("unexpected row %+v", rows[0])
	}
	if math.Abs(rows[0].KDA-(80.0+60.0)/40.0) > 1e-4 {
		t.Fatalf("unexpected kda %v", rows[0].KDA)
	}
}

func TestKDAWithoutDeaths(t *testing.T) {
	rows := BuildHeroRows([]api.PlayerHeroStat{{HeroID: 1, Kills: 3, Assists: 4}})
	if rows[0].KDA != 7 {
		t.Fatalf("expected kills+assists when deathless, got %v", rows[0].KDA)
	}
	if rows[0].WinRate != 0 {
		t.Fatalf("expected zero win rate without matches")
	}
}

func TestTopHeroesSortsByMatchesThenWinRate(t *testing.T) {
	rows := BuildHeroRows(sampleStats())
	top := TopHeroes(rows, 5)
	if top[0].HeroID != 10 {
		t.Fatalf("expected hero 10 first, got %d", top[0].HeroID)
	}
	tied := []HeroRow{{HeroID: 1, Matches: 5, WinRate: 0.2}, {HeroID: 2, Matches: 5, WinRate: 0.8}}
	if got := TopHeroes(tied, 1); len(got) != 1 || got[0].HeroID != 2 {
		t.Fatalf("expected win rate tie-break, got %+v", got)
	}
}

func TestOverallRecord(t *testing.T) {
	r := OverallRecord(BuildHeroRows(sampleStats()))
	if r.Matches != 28 || r.Wins != 17 || r.Losses != 11 {
		t.Fatalf("unexpected record %+v", r)
	}
	if math.Abs(r.WinRate-17.0/28.0) > 1e-12 {
		t.Fatalf("unexpected win rate %v", r.WinRate)
	}
	if empty := OverallRecord(nil); empty.WinRate != 0 || empty.Losses != 0 {
		t.Fatalf("unexpected empty record %+v", empty)
	}
}

func TestMMRTimelineSortsAndDiffs(t *testing.T) {
	points := MMRTimeline([]api.MMREntry{
		{MatchID: 3, StartTime: 300, PlayerScore: 12},
		{MatchID: 1, StartTime: 100, PlayerScore: 10},
		{MatchID: 2, StartTime: 200, PlayerScore: 15},
	})
	wantIDs := []int64{1, 2, 3}
	wantDeltas := []float64{0, 5, -3}
	for i, p := range points {
		if p.MatchID != wantIDs[i] || p.Delta != wantDeltas[i] {
			t.Fatalf("point %d: got match %d delta %v", i, p.MatchID, p.Delta)
		}
	}
}

func TestRankDistribution(t *testing.T) {
	got := RankDistribution([]api.RankDistributionEntry{
		{Rank: i64(2), Players: i64(30)},
		{Rank: i64(1), Players: i64(10)},
		{Rank: nil, Players: i64(60)},
		{Rank: i64(3), Players: nil},
	})
	if len(got) != 2 || got[0].Rank != 1 || got[1].Rank != 2 {
		t.Fatalf("unexpected buckets %+v", got)
	}
	if math.Abs(got[0].Percent-10) > 1e-9 || math.Abs(got[1].Percent-30) > 1e-9 {
		t.Fatalf("unexpected percentages %+v", got)
	}
	if empty := RankDistribution([]api.RankDistributionEntry{{Rank: i64(1), Players: i64(0)}}); len(empty) != 0 {
		t.Fatalf("expected no buckets without players")
	}
}

func TestHeroOverview(t *testing.T) {
	kills := 300.0
	stats := []api.HeroStatsEntry{
		{AggregateEntry: api.AggregateEntry{ID: 1, Wins: 53, Matches: i64(100)}, TotalKills: &kills},
		{AggregateEntry: api.AggregateEntry{ID: 2, Wins: 150, Losses: i64(150)}},
		{AggregateEntry: api.AggregateEntry{ID: 3}},
	}
	rows := HeroOverview(stats)
	if len(rows) != 2 || rows[0].HeroID != 2 || rows[1].HeroID != 1 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if rows[1].PickRate != 0.25 || rows[0].PickRate != 0.75 {
		t.Fatalf("unexpected pick rates %v %v", rows[1].PickRate, rows[0].PickRate)
	}
	if rows[1].Tier != TierS || rows[0].Tier != TierB {
		t.Fatalf("unexpected tiers %q %q", rows[1].Tier, rows[0].Tier)
	}
	if rows[1].Averages.Kills == nil || *rows[1].Averages.Kills != 3 || rows[0].Averages.Kills != nil {
		t.Fatalf("unexpected averages %+v %+v", rows[1].Averages, rows[0].Averages)
	}
}
