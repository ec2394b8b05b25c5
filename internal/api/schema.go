package api

import (
	"strings"

	"deadlock-tracker/internal/constants"
)

// AggregateEntry is one per-hero or per-item aggregate counter row.
// Optional counters are nil when the upstream omitted them.
type AggregateEntry struct {
	ID      int64  `json:"id"`
	Wins    int64  `json:"wins"`
	Losses  *int64 `json:"losses"`
	Matches *int64 `json:"matches"`
	Players *int64 `json:"players"`
	Bucket  *int64 `json:"bucket,omitempty"`
}

// HeroStatsEntry is a hero aggregate plus the optional per-hero totals used for averages.
type HeroStatsEntry struct {
	AggregateEntry
	TotalKills             *float64 `json:"total_kills"`
	TotalDeaths            *float64 `json:"total_deaths"`
	TotalAssists           *float64 `json:"total_assists"`
	TotalNetWorth          *float64 `json:"total_net_worth"`
	TotalLastHits          *float64 `json:"total_last_hits"`
	TotalDenies            *float64 `json:"total_denies"`
	TotalPlayerDamage      *float64 `json:"total_player_damage"`
	TotalPlayerDamageTaken *float64 `json:"total_player_damage_taken"`
}

type heroStatsWire struct {
	HeroID                 Number `json:"hero_id"`
	Wins                   Number `json:"wins"`
	Losses                 Number `json:"losses"`
	Matches                Number `json:"matches"`
	Players                Number `json:"players"`
	TotalKills             Number `json:"total_kills"`
	TotalDeaths            Number `json:"total_deaths"`
	TotalAssists           Number `json:"total_assists"`
	TotalNetWorth          Number `json:"total_net_worth"`
	TotalLastHits          Number `json:"total_last_hits"`
	TotalDenies            Number `json:"total_denies"`
	TotalPlayerDamage      Number `json:"total_player_damage"`
	TotalPlayerDamageTaken Number `json:"total_player_damage_taken"`
}

func normalizeHeroStats(w heroStatsWire) (HeroStatsEntry, string, error) {
	var c fieldCheck
	c.require("hero_id", w.HeroID)
	c.count("wins", w.Wins)
	c.optionalCount("losses", w.Losses)
	c.optionalCount("matches", w.Matches)
	c.optionalCount("players", w.Players)
	if c.err != nil {
		return HeroStatsEntry{}, c.field, c.err
	}
	return HeroStatsEntry{
		AggregateEntry: AggregateEntry{
			ID:      w.HeroID.Int(),
			Wins:    w.Wins.Int(),
			Losses:  w.Losses.IntPtr(),
			Matches: w.Matches.IntPtr(),
			Players: w.Players.IntPtr(),
		},
		TotalKills:             w.TotalKills.FloatPtr(),
		TotalDeaths:            w.TotalDeaths.FloatPtr(),
		TotalAssists:           w.TotalAssists.FloatPtr(),
		TotalNetWorth:          w.TotalNetWorth.FloatPtr(),
		TotalLastHits:          w.TotalLastHits.FloatPtr(),
		TotalDenies:            w.TotalDenies.FloatPtr(),
		TotalPlayerDamage:      w.TotalPlayerDamage.FloatPtr(),
		TotalPlayerDamageTaken: w.TotalPlayerDamageTaken.FloatPtr(),
	}, "", nil
}

type itemStatsWire struct {
	ItemID  Number `json:"item_id"`
	Wins    Number `json:"wins"`
	Losses  Number `json:"losses"`
	Matches Number `json:"matches"`
	Players Number `json:"players"`
	Bucket  Number `json:"bucket"`
}

func normalizeItemStats(w itemStatsWire) (AggregateEntry, string, error) {
	var c fieldCheck
	c.require("item_id", w.ItemID)
	c.count("wins", w.Wins)
	c.optionalCount("losses", w.Losses)
	c.optionalCount("matches", w.Matches)
	c.optionalCount("players", w.Players)
	if c.err != nil {
		return AggregateEntry{}, c.field, c.err
	}
	return AggregateEntry{
		ID:      w.ItemID.Int(),
		Wins:    w.Wins.Int(),
		Losses:  w.Losses.IntPtr(),
		Matches: w.Matches.IntPtr(),
		Players: w.Players.IntPtr(),
		Bucket:  w.Bucket.IntPtr(),
	}, "", nil
}

// LeaderboardEntry is one row of the regional player leaderboard.
type LeaderboardEntry struct {
	AccountName        string  `json:"account_name"`
	PossibleAccountIDs []int64 `json:"possible_account_ids"`
	Rank               int64   `json:"rank"`
	TopHeroIDs         []int64 `json:"top_hero_ids"`
	BadgeLevel         *int64  `json:"badge_level"`
	RankedRank         *int64  `json:"ranked_rank"`
	RankedSubrank      *int64  `json:"ranked_subrank"`
}

type leaderboardWire struct {
	AccountName        *string  `json:"account_name"`
	PossibleAccountIDs []Number `json:"possible_account_ids"`
	Rank               Number   `json:"rank"`
	TopHeroIDs         []Number `json:"top_hero_ids"`
	BadgeLevel         Number   `json:"badge_level"`
	RankedRank         Number   `json:"ranked_rank"`
	RankedSubrank      Number   `json:"ranked_subrank"`
}

func normalizeLeaderboard(w leaderboardWire) (LeaderboardEntry, string, error) {
	var c fieldCheck
	c.require("rank", w.Rank)
	if c.err != nil {
		return LeaderboardEntry{}, c.field, c.err
	}
	name := constants.UnknownPlayerName
	if w.AccountName != nil && strings.TrimSpace(*w.AccountName) != "" {
		name = *w.AccountName
	}
	return LeaderboardEntry{
		AccountName:        name,
		PossibleAccountIDs: intsOf(w.PossibleAccountIDs),
		Rank:               w.Rank.Int(),
		TopHeroIDs:         intsOf(w.TopHeroIDs),
		BadgeLevel:         w.BadgeLevel.IntPtr(),
		RankedRank:         w.RankedRank.IntPtr(),
		RankedSubrank:      w.RankedSubrank.IntPtr(),
	}, "", nil
}

// PlayerHeroStat is a player's lifetime record on one hero.
type PlayerHeroStat struct {
	AccountID      int64    `json:"account_id"`
	HeroID         int64    `json:"hero_id"`
	MatchesPlayed  int64    `json:"matches_played"`
	Wins           int64    `json:"wins"`
	Kills          int64    `json:"kills"`
	Deaths         int64    `json:"deaths"`
	Assists        int64    `json:"assists"`
	LastPlayed     *int64   `json:"last_played"`
	TimePlayed     *int64   `json:"time_played"`
	NetworthPerMin *float64 `json:"networth_per_min"`
	LastHitsPerMin *float64 `json:"last_hits_per_min"`
	DamagePerMin   *float64 `json:"damage_per_min"`
	Accuracy       *float64 `json:"accuracy"`
	Matches        []int64  `json:"matches"`
}

type playerHeroStatWire struct {
	AccountID      Number   `json:"account_id"`
	HeroID         Number   `json:"hero_id"`
	MatchesPlayed  Number   `json:"matches_played"`
	Wins           Number   `json:"wins"`
	Kills          Number   `json:"kills"`
	Deaths         Number   `json:"deaths"`
	Assists        Number   `json:"assists"`
	LastPlayed     Number   `json:"last_played"`
	TimePlayed     Number   `json:"time_played"`
	NetworthPerMin Number   `json:"networth_per_min"`
	LastHitsPerMin Number   `json:"last_hits_per_min"`
	DamagePerMin   Number   `json:"damage_per_min"`
	Accuracy       Number   `json:"accuracy"`
	Matches        []Number `json:"matches"`
}

func normalizePlayerHeroStat(w playerHeroStatWire) (PlayerHeroStat, string, error) {
	var c fieldCheck
	c.require("account_id", w.AccountID)
	c.require("hero_id", w.HeroID)
	c.count("matches_played", w.MatchesPlayed)
	c.count("wins", w.Wins)
	c.count("kills", w.Kills)
	c.count("deaths", w.Deaths)
	c.count("assists", w.Assists)
	if c.err != nil {
		return PlayerHeroStat{}, c.field, c.err
	}
	return PlayerHeroStat{
		AccountID:      w.AccountID.Int(),
		HeroID:         w.HeroID.Int(),
		MatchesPlayed:  w.MatchesPlayed.Int(),
		Wins:           w.Wins.Int(),
		Kills:          w.Kills.Int(),
		Deaths:         w.Deaths.Int(),
		Assists:        w.Assists.Int(),
		LastPlayed:     w.LastPlayed.IntPtr(),
		TimePlayed:     w.TimePlayed.IntPtr(),
		NetworthPerMin: w.NetworthPerMin.FloatPtr(),
		LastHitsPerMin: w.LastHitsPerMin.FloatPtr(),
		DamagePerMin:   w.DamagePerMin.FloatPtr(),
		Accuracy:       w.Accuracy.FloatPtr(),
		Matches:        intsOf(w.Matches),
	}, "", nil
}

// MMREntry is one MMR sample for a player.
type MMREntry struct {
	AccountID    int64   `json:"account_id"`
	MatchID      int64   `json:"match_id"`
	StartTime    int64   `json:"start_time"`
	PlayerScore  float64 `json:"player_score"`
	Rank         *int64  `json:"rank"`
	Division     *int64  `json:"division"`
	DivisionTier *int64  `json:"division_tier"`
}

type mmrWire struct {
	AccountID    Number `json:"account_id"`
	MatchID      Number `json:"match_id"`
	StartTime    Number `json:"start_time"`
	PlayerScore  Number `json:"player_score"`
	Rank         Number `json:"rank"`
	Division     Number `json:"division"`
	DivisionTier Number `json:"division_tier"`
}

func normalizeMMR(w mmrWire) (MMREntry, string, error) {
	var c fieldCheck
	c.require("account_id", w.AccountID)
	c.require("match_id", w.MatchID)
	c.require("start_time", w.StartTime)
	c.require("player_score", w.PlayerScore)
	if c.err != nil {
		return MMREntry{}, c.field, c.err
	}
	return MMREntry{
		AccountID:    w.AccountID.Int(),
		MatchID:      w.MatchID.Int(),
		StartTime:    w.StartTime.Int(),
		PlayerScore:  w.PlayerScore.Value,
		Rank:         w.Rank.IntPtr(),
		Division:     w.Division.IntPtr(),
		DivisionTier: w.DivisionTier.IntPtr(),
	}, "", nil
}

// RankDistributionEntry counts players in one rank bucket. Either field may be absent.
type RankDistributionEntry struct {
	Rank    *int64 `json:"rank"`
	Players *int64 `json:"players"`
}

type rankDistributionWire struct {
	Rank    Number `json:"rank"`
	Players Number `json:"players"`
}

func normalizeRankDistribution(w rankDistributionWire) (RankDistributionEntry, string, error) {
	var c fieldCheck
	c.optionalCount("players", w.Players)
	if c.err != nil {
		return RankDistributionEntry{}, c.field, c.err
	}
	return RankDistributionEntry{Rank: w.Rank.IntPtr(), Players: w.Players.IntPtr()}, "", nil
}
