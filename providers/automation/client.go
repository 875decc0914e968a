package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"content-hand/config"
	"content-hand/models"
	"content-hand/services"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

// maxResponseSize begrenzt, wie viel von einer Webhook-Antwort gelesen wird.
const maxResponseSize = 10 << 20

var errNotConfigured = errors.New("webhook url is not configured")

// Client kapselt die Aufrufe der Automations-Webhooks. Die URLs werden bei jedem Aufruf aus den
// Settings gelesen, damit Änderungen ohne Neustart greifen.
type Client struct {
	Settings *config.SettingsStore
	Logger   *zap.Logger

	http *http.Client
}

// NewClient erstellt einen neuen Webhook-Client.
func NewClient(cfg *config.Config, settings *config.SettingsStore, logger *zap.Logger) *Client {
	c := &Client{Settings: settings, Logger: logger, http: httpClient}
	if cfg != nil && cfg.WebhookTimeout > 0 {
		c.http = &http.Client{Timeout: cfg.WebhookTimeout}
	}
	return c
}

func (c *Client) webhooks() config.Webhooks {
	if c.Settings == nil {
		return config.Webhooks{}
	}
	return c.Settings.Snapshot().Webhooks
}

// GenerateTopics schickt die Generierungs-Anfrage und gibt den rohen Antwort-Body zurück.
func (c *Client) GenerateTopics(ctx context.Context, req models.GenerationRequest) (string, error) {
	return c.do(ctx, "generation", http.MethodPost, c.webhooks().Generation, req)
}

// GenerateContent schickt das komplette Topic an den Content-Webhook.
func (c *Client) GenerateContent(ctx context.Context, topic models.ContentTopic) (string, error) {
	return c.do(ctx, "content", http.MethodPost, c.webhooks().Content, topic)
}

// SendFeedback meldet das Review-Ergebnis eines Artikels.
func (c *Client) SendFeedback(ctx context.Context, feedback models.ArticleFeedback) error {
	_, err := c.do(ctx, "feedback", http.MethodPost, c.webhooks().Feedback, feedback)
	return err
}

// SendSocialAction meldet Freigabe, Planung oder Ablehnung eines Social-Posts.
func (c *Client) SendSocialAction(ctx context.Context, action models.SocialAction) error {
	_, err := c.do(ctx, "social", http.MethodPost, c.webhooks().Social, action)
	return err
}

// Legacy liefert den Legacy-Sync-Webhook als Sync-Quelle.
func (c *Client) Legacy() *LegacySource {
	return &LegacySource{client: c}
}

// LegacySource ist der Fallback, wenn der Remote-Store nicht erreichbar ist.
type LegacySource struct {
	client *Client
}

func (s *LegacySource) Name() string { return "legacy-webhook" }

// FetchAll ruft den Legacy-Webhook ab und mappt die Antwort auf rohe Datensätze.
func (s *LegacySource) FetchAll(ctx context.Context) ([]map[string]any, error) {
	body, err := s.client.do(ctx, "legacy-sync", http.MethodGet, s.client.webhooks().LegacySync, nil)
	if err != nil {
		return nil, err
	}
	return services.MapSyncResponse(body)
}

func (c *Client) do(ctx context.Context, target, method, url string, payload any) (string, error) {
	if url == "" {
		return "", &models.RemoteError{Target: target, Err: errNotConfigured}
	}
	log := c.Logger.With(zap.String("webhook", target), zap.String("url", url))

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s payload: %w", target, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", &models.RemoteError{Target: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("Rufe Webhook auf.")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		services.RecordWebhookCall(target, "error")
		return "", &models.RemoteError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		services.RecordWebhookCall(target, "error")
		return "", &models.RemoteError{Target: target, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		services.RecordWebhookCall(target, "error")
		log.Warn("Webhook hat mit Fehlerstatus geantwortet.",
			zap.Int("status", resp.StatusCode), zap.String("body", models.Snippet(string(raw), 200)))
		return "", &models.RemoteError{Target: target, StatusCode: resp.StatusCode}
	}

	services.RecordWebhookCall(target, "ok")
	log.Debug("Webhook-Antwort erhalten.", zap.Int("bytes", len(raw)), zap.Duration("took", time.Since(start)))
	return string(raw), nil
}
