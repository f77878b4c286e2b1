package model

import "time"

// ScoreRun records one scoring request for later audit.
type ScoreRun struct {
	ID          string    `json:"id"`
	WeightsHash string    `json:"weights_hash"`
	Prefs       *ICPPrefs `json:"prefs,omitempty"`
	MinScore    int       `json:"min_score"`
	LeadCount   int       `json:"lead_count"`
	HotCount    int       `json:"hot_count"`
	WarmCount   int       `json:"warm_count"`
	ColdCount   int       `json:"cold_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TierCounts tallies results by priority.
type TierCounts struct {
	Hot  int `json:"hot"`
	Warm int `json:"warm"`
	Cold int `json:"cold"`
}

// CountTiers tallies the priorities of the given results.
func CountTiers(results []ScoredLead) TierCounts {
	var c TierCounts
	for _, r := range results {
		switch r.Priority {
		case PriorityHot:
			c.Hot++
		case PriorityWarm:
			c.Warm++
		default:
			c.Cold++
		}
	}
	return c
}
