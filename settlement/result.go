package settlement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is what a settlement pass did for one user.
type Outcome string

const (
	// OutcomeProcessed means postings or aggregates were written.
	OutcomeProcessed Outcome = "processed"

	// OutcomeSettled means the user already had postings for the date.
	OutcomeSettled Outcome = "already_settled"

	// OutcomeLocked means another pass held the user's lock.
	OutcomeLocked Outcome = "locked"

	// OutcomeIdle means nothing was owed.
	OutcomeIdle Outcome = "idle"

	// OutcomeFailed means the user's transaction was rolled back.
	OutcomeFailed Outcome = "failed"
)

// Result summarises one pass over every user for one date.
type Result struct {
	RunID           string          `json:"run_id"`
	Date            string          `json:"date"`
	Force           bool            `json:"force"`
	Processed       int             `json:"processed"`
	Skipped         int             `json:"skipped"`
	Failed          int             `json:"failed"`
	InvestmentTotal decimal.Decimal `json:"investment_total"`
	ReferralTotal   decimal.Decimal `json:"referral_total"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
}

func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Result) record(o Outcome) {
	switch o {
	case OutcomeProcessed:
		r.Processed++
	case OutcomeSettled, OutcomeLocked:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// Metrics receives per-user outcomes and the finished run.
type Metrics interface {
	UserSettled(o Outcome)
	RunFinished(res Result, err error)
}

// Observer is told about every finished run, including aborted ones.
type Observer interface {
	RunFinished(ctx context.Context, res Result, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, res Result, err error)

func (f ObserverFunc) RunFinished(ctx context.Context, res Result, err error) {
	f(ctx, res, err)
}

type nopMetrics struct{}

func (nopMetrics) UserSettled(Outcome)       {}
func (nopMetrics) RunFinished(Result, error) {}
