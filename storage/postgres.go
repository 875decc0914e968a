package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"content-hand/config"
	"content-hand/models"
)

const postgresTarget = "postgres-store"

// insufficientPrivilege ist der SQLSTATE, mit dem Postgres GRANT- und RLS-Verstöße meldet.
const insufficientPrivilege = "42501"

// PostgresStore hält die Topics direkt in einer Postgres-Tabelle (gorm).
type PostgresStore struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewPostgresStore verbindet sich mit der Datenbank und migriert die Topic-Tabelle.
func NewPostgresStore(cfg *config.Config, log *zap.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPostgresStoreWithDB(db, log)
}

// NewPostgresStoreWithDB verwendet eine bestehende gorm-Verbindung.
func NewPostgresStoreWithDB(db *gorm.DB, log *zap.Logger) (*PostgresStore, error) {
	if err := db.AutoMigrate(&models.TopicRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate topic table: %w", err)
	}
	log.Info("Topic-Tabelle migriert.")
	return &PostgresStore{DB: db, Logger: log}, nil
}

func (s *PostgresStore) Name() string { return postgresTarget }

// FetchAll lädt alle Zeilen, neueste zuerst.
func (s *PostgresStore) FetchAll(ctx context.Context) ([]map[string]any, error) {
	var rows []models.TopicRow
	if err := s.DB.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, postgresError(err)
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := map[string]any{}
		if err := json.Unmarshal(row.Data, &record); err != nil {
			s.Logger.Warn("Zeile mit ungültigem JSON übersprungen.", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		if _, ok := record["id"]; !ok {
			record["id"] = row.ID
		}
		out = append(out, record)
	}
	return out, nil
}

// Upsert schreibt das Topic per ON CONFLICT (id) DO UPDATE.
func (s *PostgresStore) Upsert(ctx context.Context, topic models.ContentTopic) error {
	data, err := json.Marshal(topic)
	if err != nil {
		return fmt.Errorf("failed to marshal topic %s: %w", topic.ID, err)
	}
	row := models.TopicRow{
		ID:        topic.ID,
		Data:      datatypes.JSON(data),
		CreatedAt: topic.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return postgresError(err)
	}
	return nil
}

// Delete entfernt die Zeile mit der ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := s.DB.WithContext(ctx).Delete(&models.TopicRow{}, "id = ?", id).Error; err != nil {
		return postgresError(err)
	}
	return nil
}

// postgresError verpackt einen Datenbankfehler; fehlende Rechte zählen als ErrPermissionDenied.
func postgresError(err error) error {
	var pgErr *pgconn.PgError
	denied := errors.As(err, &pgErr) && pgErr.Code == insufficientPrivilege
	return &models.RemoteError{Target: postgresTarget, Denied: denied, Err: err}
}
