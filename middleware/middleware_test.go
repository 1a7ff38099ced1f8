package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCronKey(t *testing.T) {
	h := CronKey("s3cret")(ok)

	for _, tc := range []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusUnauthorized},
		{"s3cret", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/cron/daily-earnings", nil)
		if tc.header != "" {
			req.Header.Set("X-CRON-KEY", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "header %q", tc.header)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	CronKey("")(ok).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "an unset key admits nobody")
}

type fakeAdmins map[uint]bool

func (f fakeAdmins) ActiveAdmin(ctx context.Context, id uint) (models.Admin, error) {
	if f[id] {
		return models.Admin{ID: id, IsActive: true}, nil
	}
	return models.Admin{}, errors.New("inactive")
}

func TestAdminAuth(t *testing.T) {
	tokens := utils.TokenConfig{Secret: "0123456789abcdef", TTL: time.Hour}
	var seen uint
	h := AdminAuth(tokens, fakeAdmins{1: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = utils.GetAdminID(r)
		w.WriteHeader(http.StatusOK)
	}))
	call := func(tok string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/settlement/run", nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	good, err := tokens.GenerateAccessToken(1, "root", "admin")
	require.NoError(t, err)
	inactive, err := tokens.GenerateAccessToken(2, "gone", "admin")
	require.NoError(t, err)
	user, err := tokens.GenerateAccessToken(1, "root", "user")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("garbage"))
	assert.Equal(t, http.StatusForbidden, call(user))
	assert.Equal(t, http.StatusUnauthorized, call(inactive))
	assert.Equal(t, http.StatusOK, call(good))
	assert.Equal(t, uint(1), seen)
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	var rid string
	h := RequestID(SecurityHeaders(false, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid = utils.GetRequestID(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rid, 36)
	assert.Equal(t, rid, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rid)
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestMaxBodyAndValidateJSON(t *testing.T) {
	type payload struct {
		Username string `json:"username" validate:"required"`
	}
	var got payload
	h := MaxBody(32)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ValidateJSON(w, r, &got); err != nil {
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	call := func(ct, body string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnsupportedMediaType, call("text/plain", `{"username":"a"}`))
	assert.Equal(t, http.StatusBadRequest, call("application/json", `{"username":"a","x":1}`))
	assert.Equal(t, http.StatusBadRequest, call("application/json", `{"username":""}`))
	assert.Equal(t, http.StatusBadRequest, call("application/json", `{"username":"`+strings.Repeat("a", 64)+`"}`))
	assert.Equal(t, http.StatusOK, call("application/json; charset=utf-8", `{"username":"root"}`))
	assert.Equal(t, "root", got.Username)
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeHTTPMetrics struct{ got []recordedRequest }

func (f *fakeHTTPMetrics) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, recordedRequest{method, route, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := &fakeHTTPMetrics{}
	r := mux.NewRouter()
	r.Use(Metrics(m))
	r.HandleFunc("/v1/admin/investments/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}).Methods(http.MethodPost)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/admin/investments/42/approve", nil))
	require.Len(t, m.got, 1)
	assert.Equal(t, recordedRequest{"POST", "/v1/admin/investments/{id}/approve", http.StatusCreated}, m.got[0])
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	h := Timeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}
