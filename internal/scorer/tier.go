package scorer

import (
	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/model"
)

// Classify maps a score onto a tier. Lower bounds are inclusive.
func Classify(score int, w config.ScoreWeights) model.Priority {
	s := float64(score)
	switch {
	case s >= w.HotThreshold:
		return model.PriorityHot
	case s >= w.WarmThreshold:
		return model.PriorityWarm
	default:
		return model.PriorityCold
	}
}
