// Package notify delivers fire-and-forget alerts. A notifier failure
// must never block or fail execution; errors are logged and dropped.
package notify

import (
	"bytes"
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Kind names an alert event.
type Kind string

const (
	OpportunityFound Kind = "opportunity_found"
	ExecutionSettled Kind = "execution_settled"
	ExposureWarning  Kind = "exposure_warning"
)

// Notifier is the alerting collaborator contract.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, payload any)
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert.
func (n *LogNotifier) Notify(_ context.Context, kind Kind, payload any) {
	n.logger.Info("alert", zap.String("kind", string(kind)), zap.Any("payload", payload))
}

// WebhookNotifier POSTs alerts as JSON to a configured URL with a
// short timeout. Delivery failures are logged, never propagated.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a webhook-backed notifier.
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Notify posts the alert, detached from the caller's lifetime.
func (n *WebhookNotifier) Notify(_ context.Context, kind Kind, payload any) {
	body, err := json.Marshal(struct {
		Kind    Kind  `json:"kind"`
		Payload any   `json:"payload"`
		SentAt  int64 `json:"sent_at_ms"`
	}{kind, payload, time.Now().UnixMilli()})
	if err != nil {
		n.logger.Warn("alert-marshal-failed", zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			n.logger.Warn("alert-request-failed", zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.logger.Warn("alert-delivery-failed",
				zap.String("kind", string(kind)),
				zap.Error(err))
			return
		}
		_ = resp.Body.Close()
	}()
}

// Multi fans an alert out to several notifiers.
type Multi []Notifier

// Notify delivers to every notifier.
func (m Multi) Notify(ctx context.Context, kind Kind, payload any) {
	for _, n := range m {
		n.Notify(ctx, kind, payload)
	}
}
