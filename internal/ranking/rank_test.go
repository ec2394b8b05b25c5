package ranking

import (
	"math"
	"reflect"
	"testing"
)

func i64(v int64) *int64 { return &v }

func TestDerivedMatches(t *testing.T) {
	cases := []struct {
		name string
		e    RawEntry
		want int64
	}{
		{"explicit matches", RawEntry{Wins: 3, Matches: i64(10), Losses: i64(1)}, 10},
		{"zero matches falls back to losses", RawEntry{Wins: 3, Matches: i64(0), Losses: i64(4)}, 7},
		{"wins plus losses", RawEntry{Wins: 3, Losses: i64(2)}, 5},
		{"wins only", RawEntry{Wins: 6}, 6},
		{"nothing", RawEntry{}, 0},
	}
	for _, tc := range cases {
		if got := DerivedMatches(tc.e); got != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestRankWinrateTieBreaksOnMatches(t *testing.T) {
	entries := []RawEntry{
		{ID: 2, Wins: 4, Matches: i64(5)},
		{ID: 1, Wins: 8, Matches: i64(10)},
	}
	got := Rank(entries, ModeWinrate)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != 1 || got[0].Rank != 1 || got[1].ID != 2 || got[1].Rank != 2 {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].Winrate != 0.8 || got[1].Winrate != 0.8 {
		t.Fatalf("expected both winrates 0.8, got %v and %v", got[0].Winrate, got[1].Winrate)
	}
}

func TestRankFullTiesKeepInputOrder(t *testing.T) {
	entries := []RawEntry{
		{ID: 1, Wins: 0, Matches: i64(4)},
		{ID: 2, Wins: 0, Matches: i64(4)},
	}
	got := Rank(entries, ModeWinrate)
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("full ties must keep input order, got %+v", got)
	}
}

func TestRankWinrateNameTieBreak(t *testing.T) {
	names := map[int64]string{1: "Wraith", 2: "abrams", 3: "Haze"}
	entries := []RawEntry{
		{ID: 1, Wins: 5, Matches: i64(10)},
		{ID: 2, Wins: 5, Matches: i64(10)},
		{ID: 3, Wins: 5, Matches: i64(10)},
	}
	got := Rank(entries, ModeWinrate, WithNameTieBreak(func(id int64) string { return names[id] }))
	ids := []int64{got[0].ID, got[1].ID, got[2].ID}
	if !reflect.DeepEqual(ids, []int64{2, 3, 1}) {
		t.Fatalf("expected alphabetical order, got %v", ids)
	}
}

func TestRankPopularity(t *testing.T) {
	entries := []RawEntry{
		{ID: 1, Wins: 1, Matches: i64(10)},
		{ID: 2, Wins: 9, Matches: i64(30)},
		{ID: 3, Wins: 5, Matches: i64(10)},
		{ID: 4, Wins: 0},
	}
	got := Rank(entries, ModePopularity)
	ids := make([]int64, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	if !reflect.DeepEqual(ids, []int64{2, 3, 1}) {
		t.Fatalf("unexpected popularity order %v", ids)
	}
	for i, e := range got {
		if e.Rank != i+1 {
			t.Fatalf("rank %d at position %d", e.Rank, i)
		}
	}
}

func TestRankExcludesNonPositiveMatches(t *testing.T) {
	entries := []RawEntry{
		{ID: 1, Wins: 0, Losses: i64(0)},
		{ID: 2, Wins: 0, Matches: i64(0)},
		{ID: 3, Wins: 2, Matches: i64(4)},
	}
	for _, mode := range []Mode{ModeWinrate, ModePopularity} {
		got := Rank(entries, mode)
		if len(got) != 1 || got[0].ID != 3 {
			t.Fatalf("%s: expected only entity 3, got %+v", mode, got)
		}
	}
}

func TestRankLimitAppliesAfterRanking(t *testing.T) {
	entries := []RawEntry{
		{ID: 1, Wins: 5, Matches: i64(10)},
		{ID: 2, Wins: 10, Matches: i64(40)},
		{ID: 3, Wins: 1, Matches: i64(2)},
	}
	got := Rank(entries, ModePopularity, WithLimit(1))
	if len(got) != 1 || got[0].ID != 2 || got[0].Rank != 1 {
		t.Fatalf("expected only the top entry, got %+v", got)
	}
	total := TotalMatches(entries)
	if total != 52 {
		t.Fatalf("pick-rate denominator must cover all eligible entries, got %d", total)
	}
	if pr := PickRate(got[0].Matches, total); math.Abs(pr-40.0/52.0) > 1e-12 {
		t.Fatalf("unexpected pick rate %v", pr)
	}
}

func TestRankIsDeterministicAndDoesNotMutateInput(t *testing.T) {
	entries := []RawEntry{
		{ID: 1, Wins: 5, Matches: i64(10)},
		{ID: 2, Wins: 5, Matches: i64(10)},
		{ID: 3, Wins: 7, Matches: i64(10)},
	}
	before := append([]RawEntry(nil), entries...)
	a := Rank(entries, ModePopularity, WithLimit(2))
	b := Rank(entries, ModePopularity, WithLimit(2))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different rankings")
	}
	if !reflect.DeepEqual(entries, before) {
		t.Fatalf("input mutated")
	}
	a[0].Rank = 99
	if b[0].Rank == 99 {
		t.Fatalf("rankings share backing storage")
	}
}

func TestJoinWinrate(t *testing.T) {
	pop := []RankedEntry{{Rank: 1, ID: 10}, {Rank: 2, ID: 20}}
	wr := []RankedEntry{{Rank: 1, ID: 20, Winrate: 0.6}}
	got := JoinWinrate(pop, wr)
	if got[0].WinrateRank != nil || got[0].WinrateValue != nil {
		t.Fatalf("absent entity must have nil winrate fields")
	}
	if got[1].WinrateRank == nil || *got[1].WinrateRank != 1 || *got[1].WinrateValue != 0.6 {
		t.Fatalf("unexpected join %+v", got[1])
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"winrate": ModeWinrate, "Popularity": ModePopularity, "matches": ModePopularity} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q %v", in, got, err)
		}
	}
	if _, err := ParseMode("kda"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestResolveTier(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	cases := []struct {
		in   *float64
		want Tier
		ok   bool
	}{
		{f(0.55), TierS, true},
		{f(0.53), TierS, true},
		{f(0.525), TierA, true},
		{f(0.5), TierB, true},
		{f(0.481), TierC, true},
		{f(0.46), TierD, true},
		{f(0.1), TierF, true},
		{nil, "", false},
		{f(math.NaN()), "", false},
	}
	for _, tc := range cases {
		got, ok := ResolveTier(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("tier(%v): got %q %v", tc.in, got, ok)
		}
	}
}
