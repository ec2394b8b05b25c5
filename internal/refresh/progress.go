package refresh

import (
	"math"
	"time"

	"deadlock-tracker/internal/constants"
)

// FetchState is what the progress curve needs to know about the fetch that
// the animation is tracking. ResolvedAfter is measured from animation start.
type FetchState struct {
	Resolved      bool
	ResolvedAfter time.Duration
}

func clamp01(t float64) float64 {
	return math.Min(math.Max(t, 0), 1)
}

func easeOutQuad(t float64) float64 {
	t = clamp01(t)
	return 1 - (1-t)*(1-t)
}

func easeInOutQuad(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func easeOutCubic(t float64) float64 {
	t = clamp01(t)
	return 1 - math.Pow(1-t, 3)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// PendingProgress is the staged curve shown while the fetch is outstanding:
// 0→24 over 240ms, 24→58 and 58→88 over 800ms each, then a slow creep to 93.
func PendingProgress(elapsed time.Duration) float64 {
	e := ms(elapsed)
	switch {
	case e <= 0:
		return 0
	case e <= 240:
		return math.Min(24*easeOutQuad(e/240), 24)
	case e <= 1040:
		return 24 + 34*easeInOutQuad((e-240)/800)
	case e <= 1840:
		return 58 + 30*easeInOutQuad((e-1040)/800)
	}
	return 88 + 5*easeOutQuad(math.Min((e-1840)/800, 1))
}

// CompletionStart is the elapsed time at which the curve may begin easing to
// 100, or false while the fetch is outstanding.
func CompletionStart(fetch FetchState) (time.Duration, bool) {
	if !fetch.Resolved {
		return 0, false
	}
	return max(fetch.ResolvedAfter, constants.ProgressMinDwell), true
}

// Progress returns the percentage to display elapsed after animation start.
// It is non-decreasing in elapsed for a fixed fetch state and reaches exactly
// 100 once the completion window has passed.
func Progress(elapsed time.Duration, fetch FetchState) float64 {
	pending := PendingProgress(elapsed)
	start, ok := CompletionStart(fetch)
	if !ok || elapsed < start {
		return pending
	}
	t := ms(elapsed-start) / ms(constants.ProgressCompletion)
	if t >= 1 {
		return 100
	}
	return math.Min(pending+(100-pending)*easeOutCubic(t), 100)
}

// SettleAt is the elapsed time at which the refreshing indicator is hidden.
func SettleAt(fetch FetchState) (time.Duration, bool) {
	start, ok := CompletionStart(fetch)
	if !ok {
		return 0, false
	}
	return start + constants.ProgressCompletion + constants.ProgressSettleDelay, true
}
