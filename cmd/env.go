package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-scorer/internal/api"
	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/leadsource"
	"github.com/sells-group/lead-scorer/internal/metrics"
	"github.com/sells-group/lead-scorer/internal/query"
	"github.com/sells-group/lead-scorer/internal/resilience"
	"github.com/sells-group/lead-scorer/internal/scorer"
	"github.com/sells-group/lead-scorer/internal/store"
)

// sourceStore selects the configured store as the lead source.
const sourceStore = "store"

// newEngine resolves and validates weights, then builds the scoring engine.
// The returned holder lets callers swap weights later.
func newEngine(c *config.Config) (*query.Engine, *scorer.WeightsHolder, error) {
	w, err := scorer.ResolveWeights(c.Scoring)
	if err != nil {
		return nil, nil, err
	}
	holder, err := scorer.NewWeightsHolder(w)
	if err != nil {
		return nil, nil, err
	}
	engine := query.NewEngine(holder,
		query.WithConcurrency(c.Scoring.Concurrency),
		query.WithObserver(metrics.Recorder{}),
	)
	return engine, holder, nil
}

func newLoader(c *config.Config, sheet string) *leadsource.Loader {
	return leadsource.NewLoader(leadsource.Options{
		Timeout: time.Duration(c.Source.FTPTimeout) * time.Second,
		Sheet:   sheet,
	})
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// leadProvider maps a source URI to a provider. The store is opened only for
// the "store" source; the caller closes it when non-nil.
func leadProvider(ctx context.Context, c *config.Config, uri string) (api.LeadProvider, store.Store, error) {
	if uri == sourceStore {
		st, err := store.Open(ctx, c.Store)
		if err != nil {
			return nil, nil, err
		}
		return api.StoredLeads{Store: st}, st, nil
	}
	return api.SourceLeads{Loader: newLoader(c, ""), URI: uri}, nil, nil
}

// guardSource puts remote and file sources behind a circuit breaker. The
// store source is left alone; its pool already bounds failures.
func guardSource(c *config.Config, p api.LeadProvider) api.LeadProvider {
	if _, ok := p.(api.StoredLeads); ok {
		return p
	}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: c.Source.BreakerThreshold,
		ResetTimeout:     time.Duration(c.Source.BreakerResetSecs) * time.Second,
		OnStateChange: func(from, to resilience.CircuitState) {
			metrics.SourceCircuitState.Set(float64(to))
			zap.L().Warn("lead source circuit changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return api.GuardedLeads{Next: p, Breaker: breaker}
}
