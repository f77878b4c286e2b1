// Package scorer implements the lead fit scoring engine: six factor scorers,
// the weighted aggregator, and the tier classifier.
package scorer

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-scorer/internal/config"
)

// WeightSum returns the sum of all factor weights.
func WeightSum(w config.ScoreWeights) float64 {
	return w.WEmployeeFit + w.WRevenueFit + w.WIndustryMatch +
		w.WLocationMatch + w.WContactCompleteness + w.WGrowthSignal
}

// ValidateWeights checks that a ScoreWeights is internally consistent.
// Every violation is reported, not just the first.
func ValidateWeights(w config.ScoreWeights) error {
	var errs []string

	fields := []struct {
		name string
		v    float64
	}{
		{"employee_min", w.EmployeeMin},
		{"employee_max", w.EmployeeMax},
		{"rev_min", w.RevMin},
		{"rev_max", w.RevMax},
		{"w_employee_fit", w.WEmployeeFit},
		{"w_revenue_fit", w.WRevenueFit},
		{"w_industry_match", w.WIndustryMatch},
		{"w_location_match", w.WLocationMatch},
		{"w_contact_completeness", w.WContactCompleteness},
		{"w_growth_signal", w.WGrowthSignal},
		{"hot_threshold", w.HotThreshold},
		{"warm_threshold", w.WarmThreshold},
	}
	finite := true
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, fmt.Sprintf("%s must be a finite number", f.name))
			finite = false
		}
	}
	if finite && math.IsInf(WeightSum(w), 0) {
		errs = append(errs, "sum of weights must be finite")
	}

	weights := []struct {
		name string
		v    float64
	}{
		{"w_employee_fit", w.WEmployeeFit},
		{"w_revenue_fit", w.WRevenueFit},
		{"w_industry_match", w.WIndustryMatch},
		{"w_location_match", w.WLocationMatch},
		{"w_contact_completeness", w.WContactCompleteness},
		{"w_growth_signal", w.WGrowthSignal},
	}
	for _, wt := range weights {
		if wt.v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", wt.name))
		}
	}

	// Employee band.
	if w.EmployeeMin < 0 {
		errs = append(errs, "employee_min must be >= 0")
	}
	if w.EmployeeMax < w.EmployeeMin {
		errs = append(errs, "employee_max must be >= employee_min")
	}

	// Revenue band.
	if w.RevMin < 0 {
		errs = append(errs, "rev_min must be >= 0")
	}
	if w.RevMax < w.RevMin {
		errs = append(errs, "rev_max must be >= rev_min")
	}

	// Thresholds.
	if w.HotThreshold < 0 || w.HotThreshold > 100 {
		errs = append(errs, "hot_threshold must be between 0 and 100")
	}
	if w.WarmThreshold < 0 || w.WarmThreshold > 100 {
		errs = append(errs, "warm_threshold must be between 0 and 100")
	}
	if w.HotThreshold < w.WarmThreshold {
		errs = append(errs, fmt.Sprintf("hot_threshold (%g) must be >= warm_threshold (%g)", w.HotThreshold, w.WarmThreshold))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weights validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadWeightsFile reads a YAML or JSON weights document and overlays it on
// base. The format is chosen by file extension; anything other than
// .yaml/.yml is parsed as JSON.
func LoadWeightsFile(path string, base config.ScoreWeights) (config.ScoreWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrapf(err, "scorer: read weights %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		merged := base
		if err := yaml.Unmarshal(data, &merged); err != nil {
			return base, eris.Wrapf(err, "scorer: parse weights %s", path)
		}
		return merged, nil
	default:
		merged, err := config.MergeWeightsJSON(base, data)
		if err != nil {
			return base, eris.Wrapf(err, "scorer: parse weights %s", path)
		}
		return merged, nil
	}
}

// ResolveWeights applies the optional weights file to the configured weights
// and validates the result. The environment JSON override has already been
// merged by config.Load and wins over the file.
func ResolveWeights(cfg config.ScoringConfig) (config.ScoreWeights, error) {
	w := cfg.Weights
	if cfg.WeightsFile != "" && os.Getenv(config.WeightsEnvVar) == "" {
		var err error
		w, err = LoadWeightsFile(cfg.WeightsFile, w)
		if err != nil {
			return w, err
		}
	}
	if err := ValidateWeights(w); err != nil {
		return w, err
	}
	return w, nil
}

// ConfigHash returns a SHA-256 hash of the weights for run reproducibility.
// Weights JSON cannot encode (NaN, Inf) are hashed from their Go syntax.
func ConfigHash(w config.ScoreWeights) string {
	data, err := json.Marshal(w)
	if err != nil {
		data = fmt.Appendf(nil, "%#v", w)
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}
