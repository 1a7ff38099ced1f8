// Package notify reports settlement runs to an operator chat.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/settlement"
)

// Sender is the part of tgbotapi.BotAPI used here.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a short summary of every run to one chat.
type Telegram struct {
	bot    Sender
	chatID int64
	log    *zap.Logger

	// OnlyProblems mutes runs that finished without failures.
	OnlyProblems bool
}

func NewTelegram(bot Sender, chatID int64, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}
}

// SendTimeout bounds every Bot API call, the login included.
const SendTimeout = 15 * time.Second

// NewBot logs in with token.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	return newBot(token, tgbotapi.APIEndpoint)
}

func newBot(token, endpoint string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: SendTimeout})
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return bot, nil
}

// RunFinished sends the summary. The send is not tied to ctx: an aborted
// run still gets reported after its context is gone, and SendTimeout caps
// the wait instead.
func (t *Telegram) RunFinished(_ context.Context, res settlement.Result, err error) {
	if t.OnlyProblems && err == nil && res.Failed == 0 {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, Format(res, err))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, sendErr := t.bot.Send(msg); sendErr != nil {
		t.log.Warn("telegram notification failed", zap.String("run_id", res.RunID), zap.Error(sendErr))
	}
}

// Format renders a run summary as Telegram Markdown.
func Format(res settlement.Result, err error) string {
	var b strings.Builder
	switch {
	case err != nil:
		fmt.Fprintf(&b, "❌ *Settlement aborted* for %s\n", res.Date)
	case res.Failed > 0:
		fmt.Fprintf(&b, "⚠️ *Settlement finished with failures* for %s\n", res.Date)
	default:
		fmt.Fprintf(&b, "✅ *Settlement finished* for %s\n", res.Date)
	}
	if res.Force {
		b.WriteString("Mode: forced re-run\n")
	}
	fmt.Fprintf(&b, "Processed: %d\nSkipped: %d\nFailed: %d\n", res.Processed, res.Skipped, res.Failed)
	fmt.Fprintf(&b, "Investment: ₹%s\nReferral: ₹%s\n", res.InvestmentTotal.StringFixed(2), res.ReferralTotal.StringFixed(2))
	fmt.Fprintf(&b, "Took: %s\nRun: `%s`", res.Duration().Round(time.Millisecond), res.RunID)
	if err != nil {
		fmt.Fprintf(&b, "\nError: %s", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, err.Error()))
	}
	return b.String()
}
