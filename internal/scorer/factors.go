package scorer

import (
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/model"
)

// Factor names, in aggregation order.
const (
	FactorEmployeeFit         = "employee_fit"
	FactorRevenueFit          = "revenue_fit"
	FactorIndustryMatch       = "industry_match"
	FactorLocationMatch       = "location_match"
	FactorContactCompleteness = "contact_completeness"
	FactorGrowthSignal        = "growth_signal"
)

// Fold returns the case-folded, trimmed form of s for comparisons. A Caser
// carries state, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

// bandFit is a trapezoid: 1.0 inside [lo, hi], falling linearly to 0 at one
// band-width outside either edge. A zero-width band is a step.
func bandFit(x, lo, hi float64) float64 {
	if x >= lo && x <= hi {
		return 1.0
	}
	width := hi - lo
	if width <= 0 {
		return 0
	}
	var dist float64
	if x < lo {
		dist = lo - x
	} else {
		dist = x - hi
	}
	return clamp01(1 - dist/width)
}

// EmployeeFit scores the lead's headcount against the ideal employee band.
func EmployeeFit(lead *model.Lead, w config.ScoreWeights) float64 {
	if lead.EmployeeCount == nil {
		return 0
	}
	return bandFit(float64(*lead.EmployeeCount), w.EmployeeMin, w.EmployeeMax)
}

// RevenueFit scores the lead's revenue against the ideal revenue band. ICP
// revenue bounds, when given, replace the matching band edge.
func RevenueFit(lead *model.Lead, w config.ScoreWeights, prefs *model.ICPPrefs) float64 {
	if lead.RevenueUSD == nil {
		return 0
	}
	lo, hi := RevenueBand(w, prefs)
	return bandFit(*lead.RevenueUSD, lo, hi)
}

// RevenueBand returns the effective revenue band for a request. A lone ICP
// bound that crosses the opposite configured edge pulls that edge with it.
func RevenueBand(w config.ScoreWeights, prefs *model.ICPPrefs) (float64, float64) {
	lo, hi := w.RevMin, w.RevMax
	if prefs == nil {
		return lo, hi
	}
	plo, phi := lo, hi
	switch {
	case prefs.RevMin != nil && prefs.RevMax != nil:
		plo, phi = *prefs.RevMin, *prefs.RevMax
	case prefs.RevMin != nil:
		plo = *prefs.RevMin
		phi = max(hi, plo)
	case prefs.RevMax != nil:
		phi = *prefs.RevMax
		plo = min(lo, phi)
	}
	// Both bounds inverted is rejected by ICPPrefs.Validate.
	if plo > phi {
		return lo, hi
	}
	return plo, phi
}

// IndustryMatch is 1 when no industry preference is expressed or the lead's
// industry equals or contains a preferred industry, ignoring case.
func IndustryMatch(lead *model.Lead, prefs *model.ICPPrefs) float64 {
	p := prefs.Normalized()
	if len(p.Industries) == 0 {
		return 1.0
	}
	industry := Fold(lead.Industry)
	if industry == "" {
		return 0
	}
	for _, want := range p.Industries {
		if strings.Contains(industry, Fold(want)) {
			return 1.0
		}
	}
	return 0
}

// LocationMatch scores geography. With a state preference, a lead that
// matches on country but not state earns half credit.
func LocationMatch(lead *model.Lead, prefs *model.ICPPrefs) float64 {
	p := prefs.Normalized()
	if len(p.Countries) == 0 && len(p.States) == 0 {
		return 1.0
	}

	countryOK := len(p.Countries) == 0 || containsFold(p.Countries, lead.Country)
	if len(p.States) == 0 {
		if countryOK {
			return 1.0
		}
		return 0
	}

	if containsFold(p.States, lead.State) {
		if countryOK {
			return 1.0
		}
		return 0
	}
	if len(p.Countries) > 0 && countryOK {
		return 0.5
	}
	return 0
}

func containsFold(set []string, v string) bool {
	v = Fold(v)
	if v == "" {
		return false
	}
	for _, s := range set {
		if Fold(s) == v {
			return true
		}
	}
	return false
}

// ContactCompleteness is the share of email, phone, and LinkedIn present.
func ContactCompleteness(lead *model.Lead) float64 {
	n := 0
	if lead.HasEmail() {
		n++
	}
	if lead.HasPhone() {
		n++
	}
	if lead.HasLinkedIn() {
		n++
	}
	return float64(n) / 3.0
}

// GrowthSignal averages a rank signal and a hiring signal.
func GrowthSignal(lead *model.Lead) float64 {
	return (rankSignal(lead.GrowjoRank) + hiringSignal(lead.Hiring)) / 2
}

// rankSignal maps a growth rank (1 = fastest) onto (0, 1] with diminishing
// returns. A missing or non-positive rank scores 0.
func rankSignal(rank *int) float64 {
	if rank == nil || *rank <= 0 {
		return 0
	}
	return clamp01(1 / (1 + math.Log10(float64(*rank))))
}

func hiringSignal(hiring *bool) float64 {
	switch {
	case hiring == nil:
		return 0.5
	case *hiring:
		return 1.0
	default:
		return 0
	}
}
