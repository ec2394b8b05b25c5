package ranking

import "math"

type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierF Tier = "F"
)

type TierThreshold struct {
	Tier Tier
	Min  float64
}

var tierThresholds = []TierThreshold{
	{TierS, 0.53},
	{TierA, 0.52},
	{TierB, 0.50},
	{TierC, 0.48},
	{TierD, 0.46},
	{TierF, 0},
}

// ResolveTier maps a win rate to its tier; nil or NaN has no tier.
func ResolveTier(winrate *float64) (Tier, bool) {
	if winrate == nil || math.IsNaN(*winrate) {
		return "", false
	}
	for _, t := range tierThresholds {
		if *winrate >= t.Min {
			return t.Tier, true
		}
	}
	return "", false
}

func TierThresholds() []TierThreshold {
	return append([]TierThreshold(nil), tierThresholds...)
}
