// Package scoring computes the monthly baseline statistic and the per-play
// push value. All functions are pure; inputs are pre-aggregated by the syncer.
package scoring

import "math"

// Push value floor for the below-baseline farming penalty.
const penaltyFloor = -10000.0

// BaselineStat derives the composite monthly statistic from a player's top-10
// best plays: the average star rating discounted by accumulated misses.
//
//	TS = avg(SR_top10) - sqrt(sum(misses_top10)) / 10
func BaselineStat(top10AvgStars float64, top10MissSum int) float64 {
	return top10AvgStars - math.Sqrt(float64(top10MissSum))/10.0
}

// PushInputs carries everything needed to score a single play.
type PushInputs struct {
	PP               float64
	StarRating       float64 // effective (post-mod) difficulty
	TS               float64 // monthly baseline statistic
	AccuracyPercent  float64 // 0-100 scale
	MapLengthSeconds float64
	PP50Threshold    float64 // pp of the player's 50th best play this month
}

// PushValue evaluates the ordered piecewise push-value function. Cases are
// mutually exclusive and checked in order; the first match wins. The function
// is total: every input produces a finite value, the final branch is a safety
// default for an accuracy partition that is already exhaustive.
func PushValue(in PushInputs) float64 {
	pp := in.PP
	sr := in.StarRating
	ts := in.TS
	acc := in.AccuracyPercent
	length := in.MapLengthSeconds
	pp50 := in.PP50Threshold

	switch {
	// Above-threshold pp on a below-baseline map: farming penalty,
	// floored at -10000.
	case pp > pp50 && sr < ts:
		return math.Max(penaltyFloor, penaltyFloor*(ts-sr))
	case pp > pp50 && sr >= ts:
		return 0
	case pp <= pp50 && acc > 95:
		return 0
	case pp <= pp50 && acc >= 92 && acc <= 95:
		return ((95 - acc) / 3) * length
	case pp <= pp50 && acc >= 85 && acc < 92:
		return length
	case pp <= pp50 && acc >= 75 && acc < 85:
		return (0.08*acc - 5.8) * length
	case pp <= pp50 && acc < 75:
		return 0.2 * length
	default:
		return 0
	}
}
