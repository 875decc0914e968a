package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"content-hand/config"
	"content-hand/models"
)

// Store ist der Remote-Store für Topics: eine Zeile pro ID mit dem kanonischen Topic als JSON.
// Jeder Store ist gleichzeitig eine Sync-Quelle.
type Store interface {
	Name() string
	FetchAll(ctx context.Context) ([]map[string]any, error)
	Upsert(ctx context.Context, topic models.ContentTopic) error
	Delete(ctx context.Context, id string) error
}

// New wählt den Store anhand von STORE_DRIVER.
func New(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case "rest":
		return NewRESTStore(cfg, logger), nil
	case "postgres":
		return NewPostgresStore(cfg, logger)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
