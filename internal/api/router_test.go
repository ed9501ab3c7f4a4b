package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/prophet/internal/alert"
	"github.com/wonny/prophet/internal/api/handlers"
	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/engine"
	"github.com/wonny/prophet/internal/scoreconfig"
	"github.com/wonny/prophet/pkg/logger"
)

type fakeCollector map[contracts.Ticker]error

func (f fakeCollector) FetchSnapshot(ctx context.Context, ticker contracts.Ticker, asOf time.Time) (*contracts.FeatureSnapshot, error) {
	if err, ok := f[ticker]; ok {
		return nil, err
	}
	return contracts.NewSnapshotBuilder(ticker, asOf).
		SetNumber(contracts.FeaturePrice, 10000).
		SetNumber(contracts.FeatureDividendYieldPct, 5).
		Build(), nil
}

type panicCollector struct{}

func (panicCollector) FetchSnapshot(ctx context.Context, ticker contracts.Ticker, asOf time.Time) (*contracts.FeatureSnapshot, error) {
	panic("boom")
}

func newTestRouter(t *testing.T, c contracts.Collector) http.Handler {
	t.Helper()
	eng, err := engine.New(scoreconfig.Default())
	require.NoError(t, err)

	log := logger.NewNop()
	scanner := engine.NewScanner(eng, c, alert.Fanout{}, 1, nil, log)
	return NewRouter(Routes{
		Score:   handlers.NewScoreHandler(scanner, log),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "# metrics") }),
	}, log)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t, fakeCollector{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"prophet-api"}`, rec.Body.String())
}

func TestGetScore(t *testing.T) {
	router := newTestRouter(t, fakeCollector{
		"000000": fmt.Errorf("naver: %w", contracts.ErrNotFound),
		"111111": fmt.Errorf("dart: %w", contracts.ErrRateLimited),
		"222222": fmt.Errorf("postgres: %w", contracts.ErrSourceUnavailable),
	})

	rec := do(t, router, http.MethodGet, "/api/score/005930?as_of=2024-06-03", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var v contracts.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, contracts.Ticker("005930"), v.Ticker())
	assert.Equal(t, "2024-06-03", v.Score.AsOf.Format("2006-01-02"))
	assert.Equal(t, 15.0, v.Score.Total)
	assert.Equal(t, contracts.TierNone, v.Tier)

	tests := []struct {
		target string
		status int
	}{
		{"/api/score/000000", http.StatusNotFound},
		{"/api/score/111111", http.StatusTooManyRequests},
		{"/api/score/222222", http.StatusBadGateway},
		{"/api/score/BRK.B", http.StatusOK},
		{"/api/score/12", http.StatusOK},
		{"/api/score/-rm", http.StatusBadRequest},
		{"/api/score/ABCDEFGHIJKLMNOPQ", http.StatusBadRequest},
		{"/api/score/005930?as_of=June", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.status, do(t, router, http.MethodGet, tt.target, "").Code)
		})
	}
}

func TestEvaluate(t *testing.T) {
	router := newTestRouter(t, fakeCollector{})

	body := `{
		"ticker": "005930",
		"as_of": "2024-06-03T00:00:00Z",
		"numbers": {"price": 36000, "eps_forward": 5500, "margin_debt_ratio": 0.95, "dividend_yield_pct": -3}
	}`
	rec := do(t, router, http.MethodPost, "/api/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var v contracts.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, contracts.TierForbidden, v.Tier)
	assert.True(t, v.Score.Vetoed)

	// 음수 배당수익률은 제거되어 degraded
	div, ok := v.Score.Component(contracts.PredictorDividendFloor)
	require.True(t, ok)
	assert.True(t, div.MissingData)
}

func TestEvaluate_BadRequest(t *testing.T) {
	router := newTestRouter(t, fakeCollector{})

	for _, body := range []string{
		`not json`,
		`{"numbers": {"price": 1}}`,
		`{"ticker": "005930", "extra": true}`,
		`{"ticker": "../005930"}`,
		`{"ticker": "005 930"}`,
	} {
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/evaluate", body).Code, body)
	}
}

func TestMetricsRoute(t *testing.T) {
	rec := do(t, newTestRouter(t, fakeCollector{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	log := logger.NewNop()
	r := NewRouter(Routes{Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})}, log)

	rec := do(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestGetScore_PanicIsServerError(t *testing.T) {
	rec := do(t, newTestRouter(t, panicCollector{}), http.MethodGet, "/api/score/005930", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
