package scorer

import (
	"math"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/model"
)

// Factors computes every factor for a lead, in aggregation order, paired
// with its configured weight.
func Factors(lead *model.Lead, prefs *model.ICPPrefs, w config.ScoreWeights) []model.FactorScore {
	return []model.FactorScore{
		{Name: FactorEmployeeFit, SubScore: EmployeeFit(lead, w), Weight: w.WEmployeeFit},
		{Name: FactorRevenueFit, SubScore: RevenueFit(lead, w, prefs), Weight: w.WRevenueFit},
		{Name: FactorIndustryMatch, SubScore: IndustryMatch(lead, prefs), Weight: w.WIndustryMatch},
		{Name: FactorLocationMatch, SubScore: LocationMatch(lead, prefs), Weight: w.WLocationMatch},
		{Name: FactorContactCompleteness, SubScore: ContactCompleteness(lead), Weight: w.WContactCompleteness},
		{Name: FactorGrowthSignal, SubScore: GrowthSignal(lead), Weight: w.WGrowthSignal},
	}
}

// Aggregate combines weighted factors into an integer score in [0, 100].
// A zero weight sum scores 0. Halves round to even.
func Aggregate(factors []model.FactorScore) int {
	// Weights are scaled by the largest so the sums cannot overflow.
	var top float64
	for _, f := range factors {
		if f.Weight > top {
			top = f.Weight
		}
	}
	if top <= 0 || math.IsInf(top, 0) {
		return 0
	}

	var num, den float64
	for _, f := range factors {
		w := f.Weight / top
		num += w * clamp01(f.SubScore)
		den += w
	}
	if !(den > 0) {
		return 0
	}
	score := 100 * num / den
	if math.IsNaN(score) {
		return 0
	}
	score = math.Max(0, math.Min(100, score))
	return int(math.RoundToEven(score))
}

// Score scores a single lead. The returned ScoredLead holds a copy of the
// lead; the input is not modified.
func Score(lead model.Lead, prefs *model.ICPPrefs, w config.ScoreWeights) model.ScoredLead {
	factors := Factors(&lead, prefs, w)
	score := Aggregate(factors)
	return model.ScoredLead{
		Lead:     lead,
		Score:    score,
		Priority: Classify(score, w),
		Factors:  factors,
	}
}
