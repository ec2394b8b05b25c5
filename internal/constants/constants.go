package constants

import "time"

// upstream admission policy
const (
	BucketCapacity     = 5
	BucketRefillPeriod = 200 * time.Millisecond
)

const (
	ProgressMinDwell       = 1500 * time.Millisecond
	ProgressCompletion     = 420 * time.Millisecond
	ProgressSettleDelay    = 500 * time.Millisecond
	DashboardFrameInterval = 50 * time.Millisecond
)

const (
	MaxFetchAttempts = 3
	RetryBaseDelay   = 250 * time.Millisecond
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SearchSuggestionLimit = 10
	TopHeroesLimit        = 5
	DefaultRegion         = "NAmerica"
	UnknownPlayerName     = "Unknown Player"
)
