package api

import (
	"context"
	"time"

	"github.com/sells-group/lead-scorer/internal/leadsource"
	"github.com/sells-group/lead-scorer/internal/model"
	"github.com/sells-group/lead-scorer/internal/resilience"
	"github.com/sells-group/lead-scorer/internal/store"
)

// SourceLeads re-reads a lead file or URL on every request, so edits to the
// source show up without a restart.
type SourceLeads struct {
	Loader *leadsource.Loader
	URI    string
}

// Leads implements LeadProvider.
func (s SourceLeads) Leads(ctx context.Context) ([]model.Lead, error) {
	return s.Loader.Load(ctx, s.URI)
}

// StoredLeads serves leads previously imported into a Store.
type StoredLeads struct {
	Store  store.Store
	Filter store.LeadFilter
}

// Leads implements LeadProvider.
func (s StoredLeads) Leads(ctx context.Context) ([]model.Lead, error) {
	return s.Store.ListLeads(ctx, s.Filter)
}

// StaticLeads serves a fixed collection.
type StaticLeads []model.Lead

// Leads implements LeadProvider.
func (s StaticLeads) Leads(context.Context) ([]model.Lead, error) {
	return s, nil
}

// GuardedLeads routes a provider through a circuit breaker. While the
// circuit is open, Leads fails with resilience.ErrCircuitOpen without
// touching the upstream.
type GuardedLeads struct {
	Next    LeadProvider
	Breaker *resilience.CircuitBreaker
}

// Leads implements LeadProvider.
func (g GuardedLeads) Leads(ctx context.Context) ([]model.Lead, error) {
	return resilience.ExecuteVal(ctx, g.Breaker, g.Next.Leads)
}

// RetryAfter reports how long until the breaker admits a probe.
func (g GuardedLeads) RetryAfter() time.Duration {
	return g.Breaker.RetryAfter()
}
