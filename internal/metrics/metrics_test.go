package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-scorer/internal/model"
)

func TestRecorder_ObserveRun(t *testing.T) {
	runs := testutil.ToFloat64(RunsTotal)
	scored := testutil.ToFloat64(LeadsScored)
	hot := testutil.ToFloat64(LeadsReturned.WithLabelValues("Hot"))
	cold := testutil.ToFloat64(LeadsReturned.WithLabelValues("Cold"))

	Recorder{}.ObserveRun(3*time.Millisecond, 5, []model.ScoredLead{
		{Priority: model.PriorityHot},
		{Priority: model.PriorityHot},
		{Priority: model.PriorityCold},
	})

	assert.Equal(t, runs+1, testutil.ToFloat64(RunsTotal))
	assert.Equal(t, scored+5, testutil.ToFloat64(LeadsScored))
	assert.Equal(t, hot+2, testutil.ToFloat64(LeadsReturned.WithLabelValues("Hot")))
	assert.Equal(t, cold+1, testutil.ToFloat64(LeadsReturned.WithLabelValues("Cold")))
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/leads", "400"))
	ObserveHTTP("/api/leads", 400, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/leads", "400")))

	unmatched := testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "404"))
	ObserveHTTP("", 404, time.Millisecond)
	assert.Equal(t, unmatched+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "404")))
}
