package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitbudhwar0786/earning-website/settlement"
)

func TestRunFinishedLabelsResult(t *testing.T) {
	c := New()
	start := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	res := settlement.Result{
		StartedAt:       start,
		FinishedAt:      start.Add(2 * time.Second),
		InvestmentTotal: decimal.NewFromInt(180),
		ReferralTotal:   decimal.NewFromInt(60),
	}

	c.RunFinished(res, nil)
	res.Failed = 1
	c.RunFinished(res, nil)
	c.RunFinished(res, errors.New("db gone"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("aborted")))
	assert.Equal(t, 540.0, testutil.ToFloat64(c.amount.WithLabelValues("investment")))
	assert.Equal(t, 180.0, testutil.ToFloat64(c.amount.WithLabelValues("referral")))
	assert.Equal(t, float64(start.Add(2*time.Second).Unix()), testutil.ToFloat64(c.lastSuccess))
}

func TestUserSettledAndHandler(t *testing.T) {
	c := New()
	c.UserSettled(settlement.OutcomeProcessed)
	c.UserSettled(settlement.OutcomeProcessed)
	c.UserSettled(settlement.OutcomeLocked)
	c.ObserveRequest(http.MethodPost, "/v1/cron/daily-earnings", http.StatusOK, 30*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.users.WithLabelValues(string(settlement.OutcomeProcessed))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("POST", "/v1/cron/daily-earnings", "200")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "earnd_settlement_users_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
