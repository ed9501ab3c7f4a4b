package alert

import (
	"context"
	"errors"
	"io"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/httputil"
	"github.com/wonny/prophet/pkg/logger"
)

// DefaultTelegramURL is the Bot API base URL
const DefaultTelegramURL = "https://api.telegram.org"

// Telegram sends verdicts through the Bot API sendMessage method
// ⭐ SSOT: 텔레그램 알림 전송은 여기서만
type Telegram struct {
	client  *httputil.Client
	baseURL string
	token   string
	chatID  string
	logger  *logger.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewTelegram creates a Telegram emitter. An empty token or chat id disables it.
func NewTelegram(client *httputil.Client, baseURL, token, chatID string, log *logger.Logger) *Telegram {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	return &Telegram{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		logger:  log.WithComponent("telegram"),
	}
}

// Enabled reports whether messages are sent
func (t *Telegram) Enabled() bool {
	return t.token != "" && t.chatID != ""
}

// Emit sends the verdict. Failures are logged, never returned.
func (t *Telegram) Emit(ctx context.Context, v contracts.Verdict) {
	if !t.Enabled() {
		t.logger.WithField("ticker", v.Ticker()).Debug("Telegram not configured, skipping")
		return
	}

	log := t.logger.WithFields(map[string]interface{}{
		"ticker": v.Ticker(),
		"tier":   v.Tier,
	})

	url := t.baseURL + "/bot" + t.token + "/sendMessage"
	resp, err := t.client.PostJSON(ctx, url, sendMessageRequest{
		ChatID:    t.chatID,
		Text:      FormatMessage(v),
		ParseMode: "Markdown",
	})
	if err != nil {
		// url.Error는 토큰이 포함된 URL을 노출
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		log.WithError(err).Warn("Telegram send failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("Telegram send rejected")
		return
	}
	log.Info("Telegram alert sent")
}
