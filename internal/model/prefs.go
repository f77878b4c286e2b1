package model

import (
	"fmt"
	"strings"
)

// ICPPrefs is the buyer's targeting criteria for a single scoring request.
// Empty slices mean "no preference".
type ICPPrefs struct {
	Industries []string `json:"industries,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	States     []string `json:"states,omitempty"`
	RevMin     *float64 `json:"rev_min,omitempty"`
	RevMax     *float64 `json:"rev_max,omitempty"`
}

// FieldError attributes a validation failure to a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate returns one FieldError per problem, or nil when the preferences
// are usable.
func (p *ICPPrefs) Validate() []FieldError {
	if p == nil {
		return nil
	}
	var errs []FieldError
	if p.RevMin != nil && *p.RevMin < 0 {
		errs = append(errs, FieldError{Field: "prefs.rev_min", Message: "must be >= 0"})
	}
	if p.RevMax != nil && *p.RevMax < 0 {
		errs = append(errs, FieldError{Field: "prefs.rev_max", Message: "must be >= 0"})
	}
	if p.RevMin != nil && p.RevMax != nil && *p.RevMin > *p.RevMax {
		errs = append(errs, FieldError{
			Field:   "prefs.rev_min",
			Message: fmt.Sprintf("must be <= rev_max (got %.0f > %.0f)", *p.RevMin, *p.RevMax),
		})
	}
	return errs
}

// Normalized returns a copy with blank entries dropped and surrounding
// whitespace trimmed from every list value.
func (p *ICPPrefs) Normalized() ICPPrefs {
	if p == nil {
		return ICPPrefs{}
	}
	return ICPPrefs{
		Industries: trimAll(p.Industries),
		Countries:  trimAll(p.Countries),
		States:     trimAll(p.States),
		RevMin:     p.RevMin,
		RevMax:     p.RevMax,
	}
}

// Empty reports whether no preference of any kind is expressed.
func (p *ICPPrefs) Empty() bool {
	if p == nil {
		return true
	}
	n := p.Normalized()
	return len(n.Industries) == 0 && len(n.Countries) == 0 && len(n.States) == 0 &&
		n.RevMin == nil && n.RevMax == nil
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
