package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/prophet/internal/collector"
	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/engine"
	"github.com/wonny/prophet/pkg/logger"
)

const maxSnapshotBytes = 1 << 20

const maxTickerLen = 16

// 티커는 불투명 식별자: 경로 구분자/공백만 막음 (fixture 파일명, Redis 키에 쓰임)
var tickerPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._-]*$`)

// validTicker accepts any identifier up to maxTickerLen that is safe as a file name and key
func validTicker(t string) bool {
	return len(t) <= maxTickerLen && tickerPattern.MatchString(t)
}

// ScoreHandler serves verdicts over HTTP
// ⭐ SSOT: 점수 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	scanner *engine.Scanner
	now     func() time.Time
	logger  *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scanner *engine.Scanner, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		scanner: scanner,
		now:     time.Now,
		logger:  log.WithComponent("api"),
	}
}

// GetScore collects and evaluates one ticker
// GET /api/score/{ticker}?as_of=2024-06-03
func (h *ScoreHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(mux.Vars(r)["ticker"])
	if !validTicker(ticker) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("ticker must be 1-%d letters, digits, '.', '_' or '-'", maxTickerLen))
		return
	}

	asOf := h.now()
	if s := r.URL.Query().Get("as_of"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = t
	}

	v, err := h.scanner.ScoreOne(r.Context(), contracts.Ticker(ticker), asOf)
	if err != nil {
		status := statusFor(err)
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker": ticker,
			"status": status,
		}).Warn("Failed to score ticker")
		respondError(w, status, contracts.SkipReason(err))
		return
	}

	respondJSON(w, http.StatusOK, v)
}

// Evaluate scores a snapshot posted in the body without collecting
// POST /api/evaluate
func (h *ScoreHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var doc contracts.SnapshotDocument
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSnapshotBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid snapshot: "+err.Error())
		return
	}
	if doc.Ticker == "" {
		respondError(w, http.StatusBadRequest, "snapshot ticker is required")
		return
	}
	if !validTicker(string(doc.Ticker)) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("ticker must be 1-%d letters, digits, '.', '_' or '-'", maxTickerLen))
		return
	}
	if doc.AsOf.IsZero() {
		doc.AsOf = h.now()
	}

	if dropped := collector.Sanitize(&doc); len(dropped) > 0 {
		h.logger.WithFields(map[string]interface{}{
			"ticker":  doc.Ticker,
			"dropped": dropped,
		}).Debug("Dropped invalid features")
	}

	respondJSON(w, http.StatusOK, h.scanner.Engine().Evaluate(doc.Build()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, contracts.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
