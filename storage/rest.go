package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"content-hand/config"
	"content-hand/models"
)

const restTarget = "rest-store"

// restRow ist eine Zeile, wie sie die Row-API erwartet.
type restRow struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RESTStore spricht eine PostgREST-artige Row-API an (apikey + Bearer, Upsert über merge-duplicates).
type RESTStore struct {
	BaseURL string
	APIKey  string
	Table   string
	Logger  *zap.Logger

	http *http.Client
}

// NewRESTStore erstellt einen neuen REST-Store.
func NewRESTStore(cfg *config.Config, logger *zap.Logger) *RESTStore {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTStore{
		BaseURL: strings.TrimRight(cfg.StoreURL, "/"),
		APIKey:  cfg.StoreAPIKey,
		Table:   cfg.StoreTable,
		Logger:  logger,
		http:    &http.Client{Timeout: timeout},
	}
}

func (s *RESTStore) Name() string { return restTarget }

// FetchAll lädt alle Zeilen und packt die Datensätze aus der data-Spalte aus.
func (s *RESTStore) FetchAll(ctx context.Context) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/%s?select=id,data,created_at&order=created_at.desc", s.BaseURL, s.Table)
	body, err := s.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &models.RemoteError{Target: restTarget, Err: fmt.Errorf("decode rows: %w", err)}
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.RecordFromRow(row))
	}
	s.Logger.Debug("Zeilen aus dem Store geladen.", zap.Int("count", len(out)))
	return out, nil
}

// Upsert schreibt das Topic; bestehende Zeilen mit derselben ID werden überschrieben.
func (s *RESTStore) Upsert(ctx context.Context, topic models.ContentTopic) error {
	data, err := json.Marshal(topic)
	if err != nil {
		return fmt.Errorf("failed to marshal topic %s: %w", topic.ID, err)
	}
	payload, err := json.Marshal([]restRow{{
		ID:        topic.ID,
		Data:      data,
		CreatedAt: topic.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("failed to marshal row %s: %w", topic.ID, err)
	}

	endpoint := fmt.Sprintf("%s/%s?on_conflict=id", s.BaseURL, s.Table)
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"}
	_, err = s.do(ctx, http.MethodPost, endpoint, payload, headers)
	return err
}

// Delete entfernt die Zeile mit der ID.
func (s *RESTStore) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s?id=eq.%s", s.BaseURL, s.Table, url.QueryEscape(id))
	_, err := s.do(ctx, http.MethodDelete, endpoint, nil, nil)
	return err
}

func (s *RESTStore) do(ctx context.Context, method, endpoint string, payload []byte, headers map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &models.RemoteError{Target: restTarget, Err: err}
	}
	req.Header.Set("apikey", s.APIKey)
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &models.RemoteError{Target: restTarget, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.RemoteError{Target: restTarget, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.Logger.Warn("Store-Anfrage fehlgeschlagen.",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("body", models.Snippet(string(raw), 200)))
		return nil, &models.RemoteError{Target: restTarget, StatusCode: resp.StatusCode}
	}
	return raw, nil
}
