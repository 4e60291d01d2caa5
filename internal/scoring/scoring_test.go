package scoring

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestBaselineStat_ZeroMissesLeavesAverageUntouched(t *testing.T) {
	for _, d := range []float64{0, 3.5, 6.0, 9.99} {
		if got := BaselineStat(d, 0); !almostEqual(got, d) {
			t.Errorf("BaselineStat(%v, 0) = %v, want %v", d, got, d)
		}
	}
}

func TestBaselineStat_MissDiscount(t *testing.T) {
	// avg 6.0 stars, 25 misses: TS = 6 - sqrt(25)/10 = 5.5
	if got := BaselineStat(6.0, 25); !almostEqual(got, 5.5) {
		t.Errorf("BaselineStat(6.0, 25) = %v, want 5.5", got)
	}
}

func TestPushValue_FarmingPenalty(t *testing.T) {
	// pp above threshold on a map a full star below baseline: floored penalty.
	got := PushValue(PushInputs{
		PP: 300, StarRating: 4.0, TS: 5.0,
		AccuracyPercent: 98, MapLengthSeconds: 120, PP50Threshold: 250,
	})
	if !almostEqual(got, -10000) {
		t.Errorf("penalty case = %v, want -10000", got)
	}

	// Half a star below baseline: -10000 * 0.5, floor not hit.
	got = PushValue(PushInputs{
		PP: 300, StarRating: 4.5, TS: 5.0,
		AccuracyPercent: 98, MapLengthSeconds: 120, PP50Threshold: 250,
	})
	if !almostEqual(got, -5000) {
		t.Errorf("partial penalty = %v, want -5000", got)
	}
}

func TestPushValue_AboveThresholdOnBaselineMapIsNeutral(t *testing.T) {
	// sr == TS counts as at-baseline, not below.
	got := PushValue(PushInputs{
		PP: 300, StarRating: 5.0, TS: 5.0,
		AccuracyPercent: 98, MapLengthSeconds: 120, PP50Threshold: 250,
	})
	if got != 0 {
		t.Errorf("sr==TS = %v, want 0", got)
	}
}

func TestPushValue_HighAccuracyIsNeutral(t *testing.T) {
	got := PushValue(PushInputs{
		PP: 100, StarRating: 5.0, TS: 5.0,
		AccuracyPercent: 97.5, MapLengthSeconds: 200, PP50Threshold: 250,
	})
	if got != 0 {
		t.Errorf("acc>95 = %v, want 0", got)
	}
}

func TestPushValue_MidAccuracyGrind(t *testing.T) {
	// 85 <= acc < 92 rewards the full map length.
	got := PushValue(PushInputs{
		PP: 200, StarRating: 4.0, TS: 5.0,
		AccuracyPercent: 90, MapLengthSeconds: 100, PP50Threshold: 250,
	})
	if !almostEqual(got, 100) {
		t.Errorf("acc=90 = %v, want 100", got)
	}
}

func TestPushValue_LowAccuracyBands(t *testing.T) {
	// 75 <= acc < 85: (0.08*acc - 5.8) * length
	got := PushValue(PushInputs{
		PP: 200, StarRating: 4.0, TS: 5.0,
		AccuracyPercent: 80, MapLengthSeconds: 100, PP50Threshold: 250,
	})
	if !almostEqual(got, (0.08*80-5.8)*100) {
		t.Errorf("acc=80 = %v, want %v", got, (0.08*80-5.8)*100)
	}

	// acc < 75: 0.2 * length
	got = PushValue(PushInputs{
		PP: 200, StarRating: 4.0, TS: 5.0,
		AccuracyPercent: 60, MapLengthSeconds: 100, PP50Threshold: 250,
	})
	if !almostEqual(got, 20) {
		t.Errorf("acc=60 = %v, want 20", got)
	}
}

func TestPushValue_BoundaryContinuity(t *testing.T) {
	base := PushInputs{
		PP: 200, StarRating: 4.0, TS: 5.0,
		MapLengthSeconds: 100, PP50Threshold: 250,
	}

	// acc=95 belongs to the 92..95 band and yields 0, continuous with acc>95.
	in := base
	in.AccuracyPercent = 95
	if got := PushValue(in); !almostEqual(got, 0) {
		t.Errorf("acc=95 = %v, want 0", got)
	}

	// acc=92 yields (95-92)/3 * L = L, matching the 85..92 band value.
	in.AccuracyPercent = 92
	if got := PushValue(in); !almostEqual(got, 100) {
		t.Errorf("acc=92 = %v, want 100", got)
	}

	in.AccuracyPercent = 91.999999
	if got := PushValue(in); !almostEqual(got, 100) {
		t.Errorf("acc just under 92 = %v, want 100", got)
	}

	// acc=85 is the closed lower bound of the full-length band.
	in.AccuracyPercent = 85
	if got := PushValue(in); !almostEqual(got, 100) {
		t.Errorf("acc=85 = %v, want 100", got)
	}

	// acc=75 is the closed lower bound of the decay band: 0.08*75-5.8 = 0.2,
	// continuous with the below-75 branch.
	in.AccuracyPercent = 75
	if got := PushValue(in); !almostEqual(got, 20) {
		t.Errorf("acc=75 = %v, want 20", got)
	}
}

func TestPushValue_ThresholdBoundary(t *testing.T) {
	// pp exactly at the threshold is "below" (pp <= pp50 branch family).
	got := PushValue(PushInputs{
		PP: 250, StarRating: 4.0, TS: 5.0,
		AccuracyPercent: 90, MapLengthSeconds: 100, PP50Threshold: 250,
	})
	if !almostEqual(got, 100) {
		t.Errorf("pp==pp50 = %v, want 100 (accuracy branch)", got)
	}
}
