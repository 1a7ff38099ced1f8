package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/settlement"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// SettlementRunner triggers a settlement pass for today.
type SettlementRunner interface {
	RunNow(ctx context.Context, force bool) (settlement.Result, error)
}

// Expirer closes investment requests whose payment window has passed.
type Expirer interface {
	ExpirePendingInvestments(ctx context.Context, now time.Time) (int, error)
}

// CronController serves the endpoints an external cron hits. The routes
// put them behind the X-CRON-KEY check.
type CronController struct {
	Runner  SettlementRunner
	Expirer Expirer
	Now     func() time.Time
	Log     *zap.Logger
}

func NewCronController(runner SettlementRunner, expirer Expirer, log *zap.Logger) *CronController {
	if log == nil {
		log = zap.NewNop()
	}
	return &CronController{Runner: runner, Expirer: expirer, Now: time.Now, Log: log}
}

// RunTimeout caps a settlement pass started over HTTP.
const RunTimeout = 30 * time.Minute

// DailyEarnings runs the non-forced settlement pass. The pass outlives the
// cron caller's connection.
func (c *CronController) DailyEarnings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), RunTimeout)
	defer cancel()
	res, err := c.Runner.RunNow(ctx, false)
	WriteSettlementResult(w, c.Log, res, err)
}

// ExpiredHandlers expires unpaid investment requests.
func (c *CronController) ExpiredHandlers(w http.ResponseWriter, r *http.Request) {
	n, err := c.Expirer.ExpirePendingInvestments(r.Context(), c.Now())
	if err != nil {
		c.Log.Error("expire pending investments", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Internal server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Expired payments processed",
		Data:    map[string]int{"processed": n},
	})
}

// WriteSettlementResult renders a settlement pass. An aborted pass is a 500
// that still reports how far it got.
func WriteSettlementResult(w http.ResponseWriter, log *zap.Logger, res settlement.Result, err error) {
	if err != nil {
		log.Error("settlement run failed", zap.String("run_id", res.RunID), zap.Error(err))
		msg := "Settlement failed"
		if errors.Is(err, settlement.ErrRunAborted) {
			msg = "Settlement aborted: database unavailable"
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: msg, Data: res})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Daily earnings processed",
		Data:    res,
	})
}
