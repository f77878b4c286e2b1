package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/lead-scorer/internal/model"
)

const leadColumns = `id, name, industry, country, state, employee_count, revenue_usd,
	email, phone, linkedin, growjo_rank, hiring`

const runColumns = `id, weights_hash, prefs, min_score, lead_count, hot_count, warm_count, cold_count, created_at`

// leadColumnNames lists leadColumns plus updated_at for COPY-based writes.
var leadColumnNames = []string{
	"id", "name", "industry", "country", "state", "employee_count", "revenue_usd",
	"email", "phone", "linkedin", "growjo_rank", "hiring", "updated_at",
}

type scannable interface {
	Scan(dest ...any) error
}

// leadValues returns the lead's column values in leadColumns order. Nil
// pointers become NULL.
func leadValues(l model.Lead) []any {
	return []any{
		l.ID, l.Name, l.Industry, l.Country, l.State,
		l.EmployeeCount, l.RevenueUSD,
		l.Email, l.Phone, l.LinkedIn,
		l.GrowjoRank, l.Hiring,
	}
}

func scanLead(row scannable) (model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.Name, &l.Industry, &l.Country, &l.State,
		&l.EmployeeCount, &l.RevenueUSD,
		&l.Email, &l.Phone, &l.LinkedIn,
		&l.GrowjoRank, &l.Hiring)
	return l, err
}

// prepareRun fills the id, timestamp, and tier counts of a run about to be
// saved.
func prepareRun(run *model.ScoreRun, results []model.ScoredLead) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.LeadCount = len(results)
	tiers := model.CountTiers(results)
	run.HotCount, run.WarmCount, run.ColdCount = tiers.Hot, tiers.Warm, tiers.Cold
}
