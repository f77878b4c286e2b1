// Package query runs scoring requests over a collection of leads: validate,
// score in parallel, apply the min_score floor, and sort.
package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/model"
	"github.com/sells-group/lead-scorer/internal/scorer"
)

// WeightsSource supplies the weights snapshot for one request.
type WeightsSource interface {
	Load() config.ScoreWeights
}

// Observer receives per-request results. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveRun(elapsed time.Duration, scored int, returned []model.ScoredLead)
}

// Engine runs scoring requests.
type Engine struct {
	weights     WeightsSource
	concurrency int
	observer    Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds the number of leads scored in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithObserver attaches an Observer notified after each successful run.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an Engine reading weights from src.
func NewEngine(src WeightsSource, opts ...Option) *Engine {
	e := &Engine{weights: src, concurrency: 8}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Weights returns the snapshot the next request would use.
func (e *Engine) Weights() config.ScoreWeights {
	return e.weights.Load()
}

// Run validates req, scores every lead, drops leads below the floor, and
// returns the rest in sort order. An invalid request is rejected before any
// scoring happens.
func (e *Engine) Run(ctx context.Context, leads []model.Lead, req *Request) ([]model.ScoredLead, error) {
	if req == nil {
		req = &Request{Sort: SortScoreDesc}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	w := e.weights.Load()

	scored, err := e.scoreAll(ctx, leads, req.Prefs, w)
	if err != nil {
		return nil, err
	}

	results := Filter(scored, req.Floor())
	Sort(results)

	if !req.Explain {
		for i := range results {
			results[i].Factors = nil
		}
	}

	elapsed := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveRun(elapsed, len(scored), results)
	}

	tiers := model.CountTiers(results)
	zap.L().Debug("query: run complete",
		zap.Int("leads", len(leads)),
		zap.Int("returned", len(results)),
		zap.Int("min_score", req.Floor()),
		zap.Int("hot", tiers.Hot),
		zap.Int("warm", tiers.Warm),
		zap.Int("cold", tiers.Cold),
		zap.Duration("elapsed", elapsed),
	)

	return results, nil
}

// scoreAll scores leads concurrently. Each goroutine writes only its own
// slot, so no locking is needed.
func (e *Engine) scoreAll(ctx context.Context, leads []model.Lead, prefs *model.ICPPrefs, w config.ScoreWeights) ([]model.ScoredLead, error) {
	out := make([]model.ScoredLead, len(leads))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range leads {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out[i] = scorer.Score(leads[i], prefs, w)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "query: score leads")
	}
	return out, nil
}

// Filter keeps leads scoring at or above minScore. ICP preferences are never
// applied here; they only shape the score.
func Filter(results []model.ScoredLead, minScore int) []model.ScoredLead {
	if minScore <= 0 {
		return results
	}
	kept := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}

// Sort orders results by score descending, then case-folded name, then id.
func Sort(results []model.ScoredLead) {
	keys := make(map[string]string, len(results))
	key := func(name string) string {
		k, ok := keys[name]
		if !ok {
			k = scorer.Fold(name)
			keys[name] = k
		}
		return k
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if c := strings.Compare(key(a.Name), key(b.Name)); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}
