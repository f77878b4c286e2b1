package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/leadsource"
	"github.com/sells-group/lead-scorer/internal/metrics"
	"github.com/sells-group/lead-scorer/internal/model"
	"github.com/sells-group/lead-scorer/internal/query"
	"github.com/sells-group/lead-scorer/internal/resilience"
	"github.com/sells-group/lead-scorer/internal/scorer"
)

type errorResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

type weightsResponse struct {
	Hash    string              `json:"hash"`
	Weights config.ScoreWeights `json:"weights"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLeads scores the configured lead collection.
func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	req, err := query.ParseRequest(r.URL.Query())
	if err != nil {
		writeRequestError(w, err)
		return
	}

	leads, err := s.leads.Leads(r.Context())
	if err != nil {
		s.writeSourceError(w, err)
		return
	}

	s.respond(w, r, leads, req)
}

// handleScore scores leads posted as a JSON array.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	req, err := query.ParseRequest(r.URL.Query())
	if err != nil {
		writeRequestError(w, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	leads, err := s.decoder.Decode(r.Context(), leadsource.FormatJSON, body)
	if err != nil {
		metrics.RequestsRejected.WithLabelValues("body").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "invalid request",
			Fields: []model.FieldError{{Field: "body", Message: err.Error()}},
		})
		return
	}

	s.respond(w, r, leads, req)
}

func (s *Server) handleWeights(w http.ResponseWriter, _ *http.Request) {
	wt := s.engine.Weights()
	writeJSON(w, http.StatusOK, weightsResponse{Hash: scorer.ConfigHash(wt), Weights: wt})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, leads []model.Lead, req *query.Request) {
	results, err := s.engine.Run(r.Context(), leads, req)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	if results == nil {
		results = []model.ScoredLead{}
	}

	if s.runs != nil {
		run := &model.ScoreRun{
			WeightsHash: scorer.ConfigHash(s.engine.Weights()),
			Prefs:       req.Prefs,
			MinScore:    req.Floor(),
		}
		if err := s.runs.SaveRun(r.Context(), run, results); err != nil {
			zap.L().Warn("api: save score run", zap.Error(err))
		} else {
			w.Header().Set("X-Score-Run-Id", run.ID)
		}
	}

	writeJSON(w, http.StatusOK, results)
}

// writeSourceError reports a lead source failure: 503 while the source's
// circuit is open, 502 otherwise.
func (s *Server) writeSourceError(w http.ResponseWriter, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		metrics.RequestsRejected.WithLabelValues("circuit_open").Inc()
		if ra, ok := s.leads.(interface{ RetryAfter() time.Duration }); ok {
			secs := int(math.Ceil(ra.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "lead source unavailable"})
		return
	}
	zap.L().Error("api: load leads", zap.Error(err))
	writeJSON(w, http.StatusBadGateway, errorResponse{Error: "lead source unavailable"})
}

// writeRequestError maps validation failures to 400, cancellation to 503,
// and everything else to 500.
func writeRequestError(w http.ResponseWriter, err error) {
	if ve, ok := query.AsValidationError(err); ok {
		metrics.RequestsRejected.WithLabelValues("validation").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: ve.Fields})
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
		return
	}
	zap.L().Error("api: scoring failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}
