package scorer

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sells-group/lead-scorer/internal/config"
)

// WeightsHolder publishes the process-wide default weights. Readers get a
// consistent snapshot; writers replace the whole value.
type WeightsHolder struct {
	p atomic.Pointer[config.ScoreWeights]
}

// NewWeightsHolder validates w and returns a holder publishing it.
func NewWeightsHolder(w config.ScoreWeights) (*WeightsHolder, error) {
	h := &WeightsHolder{}
	if err := h.Store(w); err != nil {
		return nil, err
	}
	return h, nil
}

// Load returns the current weights by value.
func (h *WeightsHolder) Load() config.ScoreWeights {
	return *h.p.Load()
}

// Store validates w and swaps it in. Invalid weights leave the current
// value in place.
func (h *WeightsHolder) Store(w config.ScoreWeights) error {
	if err := ValidateWeights(w); err != nil {
		return err
	}
	cp := w
	h.p.Store(&cp)
	zap.L().Info("scorer: weights published", zap.String("hash", ConfigHash(cp)))
	return nil
}
