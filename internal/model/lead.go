// Package model defines the lead, preference, and scoring result types shared
// across the engine, the store, and the HTTP API.
package model

import "strings"

// Priority is the tier assigned to a scored lead.
type Priority string

// Priority tiers, hottest first.
const (
	PriorityHot  Priority = "Hot"
	PriorityWarm Priority = "Warm"
	PriorityCold Priority = "Cold"
)

// Valid reports whether p is one of the known tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHot, PriorityWarm, PriorityCold:
		return true
	}
	return false
}

// Lead is a prospective customer company as delivered by an upstream source.
// Optional attributes are pointers so that "absent" is distinguishable from
// a zero value.
type Lead struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Industry      string   `json:"industry,omitempty"`
	Country       string   `json:"country,omitempty"`
	State         string   `json:"state,omitempty"`
	EmployeeCount *int     `json:"employee_count,omitempty"`
	RevenueUSD    *float64 `json:"revenue_usd,omitempty"`
	Email         *string  `json:"email,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	LinkedIn      *string  `json:"linkedin,omitempty"`
	GrowjoRank    *int     `json:"growjo_rank,omitempty"`
	Hiring        *bool    `json:"hiring,omitempty"`
}

// HasEmail reports whether the lead carries a non-blank email.
func (l *Lead) HasEmail() bool { return present(l.Email) }

// HasPhone reports whether the lead carries a non-blank phone number.
func (l *Lead) HasPhone() bool { return present(l.Phone) }

// HasLinkedIn reports whether the lead carries a non-blank LinkedIn URL.
func (l *Lead) HasLinkedIn() bool { return present(l.LinkedIn) }

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// FactorScore is one weighted component of a lead's score.
type FactorScore struct {
	Name     string  `json:"name"`
	SubScore float64 `json:"subscore"`
	Weight   float64 `json:"weight"`
}

// ScoredLead is a copy of a Lead with engine output attached.
type ScoredLead struct {
	Lead
	Score    int           `json:"score"`
	Priority Priority      `json:"priority"`
	Factors  []FactorScore `json:"factors,omitempty"`
}

// Ptr returns a pointer to v. Handy for building leads in code and tests.
func Ptr[T any](v T) *T { return &v }
