package ranking

import (
	"cmp"
	"slices"

	"deadlock-tracker/internal/api"
)

type HeroRow struct {
	HeroID         int64    `json:"hero_id"`
	Matches        int64    `json:"matches"`
	Wins           int64    `json:"wins"`
	WinRate        float64  `json:"win_rate"`
	KDA            float64  `json:"kda"`
	NetworthPerMin *float64 `json:"networth_per_min,omitempty"`
	LastHitsPerMin *float64 `json:"last_hits_per_min,omitempty"`
	DamagePerMin   *float64 `json:"damage_per_min,omitempty"`
	LastPlayed     *int64   `json:"last_played,omitempty"`
}

func BuildHeroRows(stats []api.PlayerHeroStat) []HeroRow {
	rows := make([]HeroRow, len(stats))
	for i, s := range stats {
		kda := float64(s.Kills + s.Assists)
		if s.Deaths > 0 {
			kda /= float64(s.Deaths)
		}
		rows[i] = HeroRow{
			HeroID:         s.HeroID,
			Matches:        s.MatchesPlayed,
			Wins:           s.Wins,
			WinRate:        Winrate(s.Wins, s.MatchesPlayed),
			KDA:            kda,
			NetworthPerMin: s.NetworthPerMin,
			LastHitsPerMin: s.LastHitsPerMin,
			DamagePerMin:   s.DamagePerMin,
			LastPlayed:     s.LastPlayed,
		}
	}
	return rows
}

// TopHeroes orders by matches then win rate, both descending.
func TopHeroes(rows []HeroRow, limit int) []HeroRow {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b HeroRow) int {
		if c := cmp.Compare(b.Matches, a.Matches); c != 0 {
			return c
		}
		return cmp.Compare(b.WinRate, a.WinRate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type Record struct {
	Matches int64   `json:"matches"`
	Wins    int64   `json:"wins"`
	Losses  int64   `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

func OverallRecord(rows []HeroRow) Record {
	var r Record
	for _, row := range rows {
		r.Matches += row.Matches
		r.Wins += row.Wins
	}
	r.Losses = max(r.Matches-r.Wins, 0)
	r.WinRate = Winrate(r.Wins, r.Matches)
	return r
}

type MMRPoint struct {
	api.MMREntry
	Delta float64 `json:"delta"`
}

// MMRTimeline sorts samples by start time and annotates each with the score
// change from the previous sample; the first delta is 0.
func MMRTimeline(entries []api.MMREntry) []MMRPoint {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b api.MMREntry) int {
		return cmp.Compare(a.StartTime, b.StartTime)
	})
	points := make([]MMRPoint, len(sorted))
	for i, e := range sorted {
		points[i] = MMRPoint{MMREntry: e}
		if i > 0 {
			points[i].Delta = e.PlayerScore - sorted[i-1].PlayerScore
		}
	}
	return points
}
