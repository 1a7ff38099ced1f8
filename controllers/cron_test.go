package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitbudhwar0786/earning-website/settlement"
)

type recordingRunner struct {
	ctxErr   error
	deadline time.Time
	force    bool
}

func (r *recordingRunner) RunNow(ctx context.Context, force bool) (settlement.Result, error) {
	r.ctxErr = ctx.Err()
	r.deadline, _ = ctx.Deadline()
	r.force = force
	return settlement.Result{RunID: "run-1", Processed: 2}, nil
}

func TestDailyEarningsOutlivesCaller(t *testing.T) {
	runner := &recordingRunner{}
	c := NewCronController(runner, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/cron/daily-earnings", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c.DailyEarnings(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, runner.ctxErr, "the pass must not see the caller's cancellation")
	assert.False(t, runner.force)
	assert.WithinDuration(t, time.Now().Add(RunTimeout), runner.deadline, time.Minute)
}
