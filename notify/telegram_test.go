package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitbudhwar0786/earning-website/settlement"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func result() settlement.Result {
	start := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return settlement.Result{
		RunID:           "run-1",
		Date:            "2026-03-14",
		Processed:       3,
		Skipped:         1,
		InvestmentTotal: decimal.NewFromInt(250),
		ReferralTotal:   decimal.NewFromInt(60),
		StartedAt:       start,
		FinishedAt:      start.Add(1500 * time.Millisecond),
	}
}

func TestFormat(t *testing.T) {
	out := Format(result(), nil)
	assert.Contains(t, out, "Settlement finished* for 2026-03-14")
	assert.Contains(t, out, "Processed: 3")
	assert.Contains(t, out, "Investment: ₹250.00")
	assert.Contains(t, out, "Referral: ₹60.00")
	assert.Contains(t, out, "Took: 1.5s")

	res := result()
	res.Failed = 1
	res.Force = true
	out = Format(res, nil)
	assert.Contains(t, out, "with failures")
	assert.Contains(t, out, "forced re-run")

	out = Format(result(), errors.New("dial tcp: i/o timeout"))
	assert.Contains(t, out, "Settlement aborted")
	assert.Contains(t, out, "i/o timeout")
}

func TestTelegramSendsToChat(t *testing.T) {
	s := &fakeSender{}
	n := NewTelegram(s, -100123, nil)
	n.RunFinished(context.Background(), result(), nil)

	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(-100123), s.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, s.sent[0].ParseMode)
}

func TestTelegramOnlyProblems(t *testing.T) {
	s := &fakeSender{err: errors.New("blocked")}
	n := NewTelegram(s, 1, nil)
	n.OnlyProblems = true

	n.RunFinished(context.Background(), result(), nil)
	assert.Empty(t, s.sent)

	n.RunFinished(context.Background(), result(), settlement.ErrRunAborted)
	assert.Len(t, s.sent, 1, "send errors are logged, not returned")
}

func TestTelegramReportsAbortAfterContextCancelled(t *testing.T) {
	s := &fakeSender{}
	n := NewTelegram(s, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n.RunFinished(ctx, result(), settlement.ErrRunAborted)
	assert.Len(t, s.sent, 1)
}

func TestNewBotUsesBoundedClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/getMe"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"payouts","username":"payouts_bot"}}`))
	}))
	defer srv.Close()

	bot, err := newBot("123:abc", srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	assert.Equal(t, "payouts_bot", bot.Self.UserName)

	client, ok := bot.Client.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, SendTimeout, client.Timeout)
}
