package domain

import (
	"strconv"
	"time"
)

// DateRange bounds aggregate queries by match start time (inclusive, unix seconds).
// A nil bound is unbounded.
type DateRange struct {
	MinUnixTimestamp *int64 `json:"min_unix_timestamp,omitempty" yaml:"min_unix_timestamp,omitempty"`
	MaxUnixTimestamp *int64 `json:"max_unix_timestamp,omitempty" yaml:"max_unix_timestamp,omitempty"`
}

func NewDateRange(min, max *time.Time) DateRange {
	var r DateRange
	if min != nil {
		v := min.Unix()
		r.MinUnixTimestamp = &v
	}
	if max != nil {
		v := max.Unix()
		r.MaxUnixTimestamp = &v
	}
	return r
}

// Equal compares the bound values, not the pointers.
func (r DateRange) Equal(other DateRange) bool {
	return sameBound(r.MinUnixTimestamp, other.MinUnixTimestamp) &&
		sameBound(r.MaxUnixTimestamp, other.MaxUnixTimestamp)
}

// Signature is a stable identity for the pair, e.g. "1700000000-" for an open upper bound.
func (r DateRange) Signature() string {
	return boundString(r.MinUnixTimestamp) + "-" + boundString(r.MaxUnixTimestamp)
}

func (r DateRange) IsZero() bool {
	return r.MinUnixTimestamp == nil && r.MaxUnixTimestamp == nil
}

func sameBound(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func boundString(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

type EntityKind string

const (
	EntityHero EntityKind = "hero"
	EntityItem EntityKind = "item"
)

// PlayerSummary is the lookup-history record kept for search suggestions.
type PlayerSummary struct {
	AccountID     int64
	DisplayName   string
	Rank          *int64
	MatchesPlayed int64
	Wins          int64
	WinRate       float64
	TopHeroID     *int64
	LastFetchAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PlayerLookup struct {
	ID        string // nanoid
	AccountID int64
	Found     bool
	ViewedAt  time.Time
}
