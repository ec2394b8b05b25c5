package ranking

import (
	"cmp"
	"slices"

	"deadlock-tracker/internal/api"
)

type HeroAverages struct {
	Kills             *float64 `json:"kills,omitempty"`
	Deaths            *float64 `json:"deaths,omitempty"`
	Assists           *float64 `json:"assists,omitempty"`
	NetWorth          *float64 `json:"net_worth,omitempty"`
	LastHits          *float64 `json:"last_hits,omitempty"`
	Denies            *float64 `json:"denies,omitempty"`
	PlayerDamage      *float64 `json:"player_damage,omitempty"`
	PlayerDamageTaken *float64 `json:"player_damage_taken,omitempty"`
}

type HeroOverviewRow struct {
	HeroID   int64        `json:"hero_id"`
	Matches  int64        `json:"matches"`
	Wins     int64        `json:"wins"`
	Winrate  float64      `json:"winrate"`
	PickRate float64      `json:"pick_rate"`
	Tier     Tier         `json:"tier,omitempty"`
	Averages HeroAverages `json:"averages"`
}

// HeroOverview builds one row per eligible hero, ordered by matches descending.
func HeroOverview(stats []api.HeroStatsEntry) []HeroOverviewRow {
	raw := make([]RawEntry, len(stats))
	for i, s := range stats {
		raw[i] = s.AggregateEntry
	}
	total := TotalMatches(raw)

	rows := make([]HeroOverviewRow, 0, len(stats))
	for _, s := range stats {
		matches := DerivedMatches(s.AggregateEntry)
		if matches <= 0 {
			continue
		}
		wr := Winrate(s.Wins, matches)
		row := HeroOverviewRow{
			HeroID:   s.ID,
			Matches:  matches,
			Wins:     s.Wins,
			Winrate:  wr,
			PickRate: PickRate(matches, total),
			Averages: HeroAverages{
				Kills:             perMatch(s.TotalKills, matches),
				Deaths:            perMatch(s.TotalDeaths, matches),
				Assists:           perMatch(s.TotalAssists, matches),
				NetWorth:          perMatch(s.TotalNetWorth, matches),
				LastHits:          perMatch(s.TotalLastHits, matches),
				Denies:            perMatch(s.TotalDenies, matches),
				PlayerDamage:      perMatch(s.TotalPlayerDamage, matches),
				PlayerDamageTaken: perMatch(s.TotalPlayerDamageTaken, matches),
			},
		}
		if t, ok := ResolveTier(&wr); ok {
			row.Tier = t
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b HeroOverviewRow) int {
		return cmp.Compare(b.Matches, a.Matches)
	})
	return rows
}

func perMatch(total *float64, matches int64) *float64 {
	if total == nil || matches <= 0 {
		return nil
	}
	v := *total / float64(matches)
	return &v
}

type DistributionBucket struct {
	Rank    int64   `json:"rank"`
	Players int64   `json:"players"`
	Percent float64 `json:"percent"`
}

// RankDistribution keeps buckets with both rank and players, sorted by rank,
// with each bucket's share of all players as a percentage.
func RankDistribution(entries []api.RankDistributionEntry) []DistributionBucket {
	var total int64
	for _, e := range entries {
		if e.Players != nil {
			total += *e.Players
		}
	}
	if total <= 0 {
		return []DistributionBucket{}
	}
	buckets := make([]DistributionBucket, 0, len(entries))
	for _, e := range entries {
		if e.Rank == nil || e.Players == nil {
			continue
		}
		buckets = append(buckets, DistributionBucket{
			Rank:    *e.Rank,
			Players: *e.Players,
			Percent: float64(*e.Players) / float64(total) * 100,
		})
	}
	slices.SortStableFunc(buckets, func(a, b DistributionBucket) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return buckets
}
