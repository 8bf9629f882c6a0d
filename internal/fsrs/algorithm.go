package fsrs

import "math"

// forgettingFactor returns 0.9^(-1/decay) - 1, the scale constant that makes
// retrievability equal 0.9 after exactly `stability` days.
func forgettingFactor(decay float64) float64 {
	return math.Pow(0.9, -1/decay) - 1
}

// Retrievability computes R(t, S) = (1 + factor*t/S)^(-decay), the estimated
// probability of recall after elapsedDays with the given stability.
func Retrievability(elapsedDays, stability, decay float64) float64 {
	return math.Pow(1+forgettingFactor(decay)*elapsedDays/stability, -decay)
}

// intervalDays computes the interval at which retrievability decays to the
// target retention: I(R, S) = (S / factor) * (R^(-1/decay) - 1), floored at 0.
func intervalDays(stability, retention, decay float64) float64 {
	ivl := stability / forgettingFactor(decay) * (math.Pow(retention, -1/decay) - 1)
	return math.Max(ivl, 0)
}

// initStability returns S0(G) from the per-rating calibration table.
func initStability(r Rating) float64 {
	return clampStability(Weights[r-1])
}

// initDifficulty returns D0(G) = w4 - e^(w5*(G-1)) + 1.
// The mean-reversion target in nextDifficulty uses the unclamped value.
func initDifficulty(r Rating, clamp bool) float64 {
	d := Weights[4] - math.Exp(Weights[5]*float64(r-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// shortTermStability updates stability for a same-day re-review, nudging it
// up or down by how the rating compares to Good:
// S' = S * e^(w17*(G-3+w18)) * S^(-w19), never shrinking on Good/Easy.
func shortTermStability(stability float64, r Rating) float64 {
	sInc := math.Exp(Weights[17]*(float64(r)-3+Weights[18])) * math.Pow(stability, -Weights[19])
	if r == Good || r == Easy {
		sInc = math.Max(sInc, 1)
	}
	return clampStability(stability * sInc)
}

// nextDifficulty applies linear damping toward the ceiling followed by mean
// reversion to D0(Easy):
// D'  = D + (10-D) * (-w6*(G-3)) / 9
// D'' = w7*D0(Easy) + (1-w7)*D'
func nextDifficulty(difficulty float64, r Rating) float64 {
	deltaD := -Weights[6] * (float64(r) - 3)
	dPrime := difficulty + (10-difficulty)*deltaD/9
	return clampDifficulty(Weights[7]*initDifficulty(Easy, false) + (1-Weights[7])*dPrime)
}

// nextRecallStability grows stability after a successful recall:
// S' = S * (1 + e^w8 * (11-D) * S^(-w9) * (e^((1-R)*w10) - 1) * hard * easy)
// with a damping multiplier w15 on Hard and a bonus multiplier w16 on Easy.
func nextRecallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = Weights[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = Weights[16]
	}
	grown := s * (1 + math.Exp(Weights[8])*
		(11-d)*
		math.Pow(s, -Weights[9])*
		(math.Exp((1-r)*Weights[10])-1)*
		hardPenalty*easyBonus)
	return clampStability(grown)
}

// nextForgetStability shrinks stability after a lapse, bounded above by the
// short-term floor S / e^(w17*w18):
// S' = min(w11 * D^(-w12) * ((S+1)^w13 - 1) * e^((1-R)*w14), S / e^(w17*w18))
func nextForgetStability(d, s, r float64) float64 {
	long := Weights[11] *
		math.Pow(d, -Weights[12]) *
		(math.Pow(s+1, Weights[13]) - 1) *
		math.Exp((1-r)*Weights[14])
	short := s / math.Exp(Weights[17]*Weights[18])
	return clampStability(math.Min(long, short))
}
