package leadsource

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/lead-scorer/internal/model"
)

// columnAliases maps alternative column names onto lead fields.
var columnAliases = map[string]string{
	"employees": "employee_count",
	"revenue":   "revenue_usd",
}

// leadIDNamespace seeds ids derived from lead names.
var leadIDNamespace = uuid.MustParse("6f0c7a52-3c1e-4f7b-9a55-2d1f0b8e4c11")

// rawLead holds one source row before type conversion.
type rawLead struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	Industry      string `csv:"industry"`
	Country       string `csv:"country"`
	State         string `csv:"state"`
	EmployeeCount string `csv:"employee_count"`
	RevenueUSD    string `csv:"revenue_usd"`
	Email         string `csv:"email"`
	Phone         string `csv:"phone"`
	LinkedIn      string `csv:"linkedin"`
	GrowjoRank    string `csv:"growjo_rank"`
	Hiring        string `csv:"hiring"`
}

// normalizeColumn lower-cases a header and joins words with underscores.
func normalizeColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// canonicalHeader rewrites alias columns to their field names unless the
// canonical column is also present.
func canonicalHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		out[i] = normalizeColumn(h)
		seen[out[i]] = true
	}
	for i, h := range out {
		if target, ok := columnAliases[h]; ok && !seen[target] {
			out[i] = target
			seen[target] = true
		}
	}
	return out
}

// set assigns a value by column name. Blank values are ignored, and alias
// columns never overwrite a value already set.
func (r *rawLead) set(column, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	column = normalizeColumn(column)
	if target, ok := columnAliases[column]; ok {
		if f := r.field(target); f != nil && *f == "" {
			*f = value
		}
		return
	}
	if f := r.field(column); f != nil {
		*f = value
	}
}

func (r *rawLead) field(column string) *string {
	switch column {
	case "id":
		return &r.ID
	case "name":
		return &r.Name
	case "industry":
		return &r.Industry
	case "country":
		return &r.Country
	case "state":
		return &r.State
	case "employee_count":
		return &r.EmployeeCount
	case "revenue_usd":
		return &r.RevenueUSD
	case "email":
		return &r.Email
	case "phone":
		return &r.Phone
	case "linkedin":
		return &r.LinkedIn
	case "growjo_rank":
		return &r.GrowjoRank
	case "hiring":
		return &r.Hiring
	}
	return nil
}

// lead converts the row. It reports false when the row has no name.
func (r *rawLead) lead() (model.Lead, bool) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return model.Lead{}, false
	}

	l := model.Lead{
		ID:       strings.TrimSpace(r.ID),
		Name:     name,
		Industry: strings.TrimSpace(r.Industry),
		Country:  strings.TrimSpace(r.Country),
		State:    strings.TrimSpace(r.State),
		Email:    optString(r.Email),
		Phone:    optString(r.Phone),
		LinkedIn: optString(r.LinkedIn),
	}
	if l.ID == "" {
		l.ID = StableID(name)
	}
	if n, ok := parseCount(r.EmployeeCount); ok {
		l.EmployeeCount = &n
	}
	if v, ok := ParseAmount(r.RevenueUSD); ok {
		l.RevenueUSD = &v
	}
	if n, ok := parseCount(r.GrowjoRank); ok {
		l.GrowjoRank = &n
	}
	if b, ok := parseFlag(r.Hiring); ok {
		l.Hiring = &b
	}
	return l, true
}

// StableID derives a deterministic id from a lead name, so re-imports of
// id-less sources upsert rather than duplicate.
func StableID(name string) string {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	return uuid.NewSHA1(leadIDNamespace, []byte(key)).String()
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
