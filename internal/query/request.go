package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/lead-scorer/internal/model"
)

// SortScoreDesc orders by score descending, then name, then id.
const SortScoreDesc = "score_desc"

// Request is a validated scoring query. A nil MinScore means no floor; nil
// Prefs means no ICP preference.
type Request struct {
	Sort     string          `json:"sort"`
	MinScore *int            `json:"min_score,omitempty"`
	Prefs    *model.ICPPrefs `json:"prefs,omitempty"`
	Explain  bool            `json:"explain,omitempty"`
}

// Floor returns the effective minimum score.
func (r *Request) Floor() int {
	if r.MinScore == nil {
		return 0
	}
	return *r.MinScore
}

// Validate checks every field and reports all problems together.
func (r *Request) Validate() error {
	var errs []model.FieldError

	switch r.Sort {
	case "", SortScoreDesc:
	default:
		errs = append(errs, model.FieldError{
			Field:   "sort",
			Message: fmt.Sprintf("unsupported value %q (allowed: %s)", r.Sort, SortScoreDesc),
		})
	}

	if r.MinScore != nil && (*r.MinScore < 0 || *r.MinScore > 100) {
		errs = append(errs, model.FieldError{
			Field:   "min_score",
			Message: fmt.Sprintf("must be between 0 and 100 (got %d)", *r.MinScore),
		})
	}

	errs = append(errs, r.Prefs.Validate()...)
	return invalid(errs...)
}

// ParseRequest builds a Request from HTTP-style query parameters: sort,
// min_score, prefs (JSON-encoded ICPPrefs), and explain.
func ParseRequest(q url.Values) (*Request, error) {
	req := &Request{Sort: strings.TrimSpace(q.Get("sort"))}
	if req.Sort == "" {
		req.Sort = SortScoreDesc
	}

	var errs []model.FieldError

	if raw := strings.TrimSpace(q.Get("min_score")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "min_score", Message: fmt.Sprintf("must be an integer (got %q)", raw)})
		} else {
			req.MinScore = &n
		}
	}

	if raw := strings.TrimSpace(q.Get("prefs")); raw != "" {
		prefs, perrs := ParsePrefs([]byte(raw))
		errs = append(errs, perrs...)
		req.Prefs = prefs
	}

	if raw := strings.TrimSpace(q.Get("explain")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "explain", Message: fmt.Sprintf("must be a boolean (got %q)", raw)})
		}
		req.Explain = b
	}

	if len(errs) > 0 {
		return nil, invalid(errs...)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// ParsePrefs decodes and schema-checks a JSON ICPPrefs document. A JSON
// null yields nil prefs.
func ParsePrefs(raw []byte) (*model.ICPPrefs, []model.FieldError) {
	if strings.TrimSpace(string(raw)) == "null" {
		return nil, nil
	}
	if errs := validatePrefsJSON(raw); len(errs) > 0 {
		return nil, errs
	}
	var prefs model.ICPPrefs
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return nil, []model.FieldError{{Field: "prefs", Message: fmt.Sprintf("malformed JSON: %v", err)}}
	}
	return &prefs, nil
}
