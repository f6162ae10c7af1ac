package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
)

var _ domrepo.Metrics = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordRun(models.RunCompleted, 42)
	r.RecordRun(models.RunFailed, 3)
	r.RecordIndicator("USD", "scored")
	r.RecordIndicator("USD", "scored")
	r.RecordRiskModifier(-1)
	r.RecordError("recap")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.indicators.WithLabelValues("USD", "scored")))
	assert.Equal(t, -1.0, testutil.ToFloat64(r.riskModifier))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.riskDecisions.WithLabelValues("-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("recap")))
}
