// Package ranking derives ordered leaderboards and summary figures from raw
// aggregate counters. Everything here is pure: inputs are never mutated and a
// fresh slice is returned per call.
package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"deadlock-tracker/internal/api"
)

type Mode string

const (
	ModeWinrate    Mode = "winrate"
	ModePopularity Mode = "popularity"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWinrate:
		return ModeWinrate, nil
	case ModePopularity, "matches":
		return ModePopularity, nil
	}
	return "", fmt.Errorf("unknown ranking mode %q", s)
}

type RawEntry = api.AggregateEntry

type RankedEntry struct {
	Rank    int     `json:"rank"`
	ID      int64   `json:"id"`
	Wins    int64   `json:"wins"`
	Losses  *int64  `json:"losses,omitempty"`
	Matches int64   `json:"matches"`
	Players *int64  `json:"players,omitempty"`
	Bucket  *int64  `json:"bucket,omitempty"`
	Winrate float64 `json:"winrate"`
}

// DerivedMatches prefers a positive matches field, then wins+losses, then wins.
func DerivedMatches(e RawEntry) int64 {
	if e.Matches != nil && *e.Matches > 0 {
		return *e.Matches
	}
	if e.Losses != nil {
		return max(e.Wins+*e.Losses, 0)
	}
	return e.Wins
}

func Winrate(wins, matches int64) float64 {
	if matches <= 0 {
		return 0
	}
	return float64(wins) / float64(matches)
}

type options struct {
	limit int
	names func(id int64) string
}

type Option func(*options)

// WithLimit truncates the ranked sequence after ranking. n <= 0 means no limit.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithNameTieBreak replaces the wins tie-break of win-rate mode with display
// name ascending.
func WithNameTieBreak(names func(id int64) string) Option {
	return func(o *options) { o.names = names }
}

// Rank orders the eligible entries (derived matches > 0) and assigns 1-based ranks.
// Full ties keep input order.
func Rank(entries []RawEntry, mode Mode, opts ...Option) []RankedEntry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ranked := make([]RankedEntry, 0, len(entries))
	for _, e := range entries {
		matches := DerivedMatches(e)
		if matches <= 0 {
			continue
		}
		ranked = append(ranked, RankedEntry{
			ID:      e.ID,
			Wins:    e.Wins,
			Losses:  e.Losses,
			Matches: matches,
			Players: e.Players,
			Bucket:  e.Bucket,
			Winrate: Winrate(e.Wins, matches),
		})
	}

	slices.SortStableFunc(ranked, comparator(mode, o.names))

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	if o.limit > 0 && len(ranked) > o.limit {
		ranked = ranked[:o.limit]
	}
	return ranked
}

func comparator(mode Mode, names func(int64) string) func(a, b RankedEntry) int {
	if mode == ModePopularity {
		return func(a, b RankedEntry) int {
			if c := cmp.Compare(b.Matches, a.Matches); c != 0 {
				return c
			}
			if c := cmp.Compare(b.Winrate, a.Winrate); c != 0 {
				return c
			}
			return cmp.Compare(b.Wins, a.Wins)
		}
	}
	return func(a, b RankedEntry) int {
		if c := cmp.Compare(b.Winrate, a.Winrate); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Matches, a.Matches); c != 0 {
			return c
		}
		if names != nil {
			return strings.Compare(strings.ToLower(names(a.ID)), strings.ToLower(names(b.ID)))
		}
		return cmp.Compare(b.Wins, a.Wins)
	}
}

// TotalMatches sums derived matches over the eligible set. It is the pick-rate
// denominator and must be computed before any limit is applied.
func TotalMatches(entries []RawEntry) int64 {
	var total int64
	for _, e := range entries {
		if m := DerivedMatches(e); m > 0 {
			total += m
		}
	}
	return total
}

func PickRate(matches, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

// WinrateRef is the position and value of an entity in a win-rate ranking.
type WinrateRef struct {
	Rank  int
	Value float64
}

func IndexByID(ranked []RankedEntry) map[int64]WinrateRef {
	idx := make(map[int64]WinrateRef, len(ranked))
	for _, e := range ranked {
		idx[e.ID] = WinrateRef{Rank: e.Rank, Value: e.Winrate}
	}
	return idx
}

// JoinedEntry is a popularity entry annotated with its win-rate ranking.
// WinrateRank and WinrateValue are nil when the entity is absent from the win-rate feed.
type JoinedEntry struct {
	RankedEntry
	WinrateRank  *int     `json:"winrate_rank,omitempty"`
	WinrateValue *float64 `json:"winrate_value,omitempty"`
}

func JoinWinrate(popularity, winrate []RankedEntry) []JoinedEntry {
	idx := IndexByID(winrate)
	out := make([]JoinedEntry, len(popularity))
	for i, e := range popularity {
		out[i] = JoinedEntry{RankedEntry: e}
		if ref, ok := idx[e.ID]; ok {
			rank, value := ref.Rank, ref.Value
			out[i].WinrateRank = &rank
			out[i].WinrateValue = &value
		}
	}
	return out
}

// SelfJoin annotates a win-rate ranking with its own rank and value.
func SelfJoin(winrate []RankedEntry) []JoinedEntry {
	return JoinWinrate(winrate, winrate)
}
