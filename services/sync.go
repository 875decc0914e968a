package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"content-hand/models"
	"content-hand/providers"
)

// Syncer holt den Remote-Stand und führt ihn in die Sammlung zusammen.
type Syncer struct {
	Primary  providers.Source
	Fallback providers.Source
	Topics   *TopicCollection
	Logger   *zap.Logger
}

// NewSyncer erstellt einen Syncer. fallback darf nil sein.
func NewSyncer(primary, fallback providers.Source, topics *TopicCollection, logger *zap.Logger) *Syncer {
	return &Syncer{Primary: primary, Fallback: fallback, Topics: topics, Logger: logger}
}

// Sync gibt die Anzahl geladener Datensätze zurück. Fehler werden nur geloggt; ist keine Quelle
// erreichbar, bleibt der lokale Stand unverändert und das Ergebnis ist 0.
func (s *Syncer) Sync(ctx context.Context) int {
	for _, src := range []providers.Source{s.Primary, s.Fallback} {
		if src == nil {
			continue
		}
		log := s.Logger.With(zap.String("source", src.Name()))

		records, err := src.FetchAll(ctx)
		if err != nil {
			syncRunsCounter.WithLabelValues(src.Name(), "error").Inc()
			if errors.Is(err, models.ErrPermissionDenied) {
				log.Error("Zugriff auf den Remote-Store verweigert. Row-Level-Policy der Tabelle und den API-Key (Service-Key mit Schreibrechten) prüfen.",
					zap.Error(err))
			} else {
				log.Warn("Sync-Quelle nicht erreichbar.", zap.Error(err))
			}
			continue
		}

		syncRunsCounter.WithLabelValues(src.Name(), "ok").Inc()
		total := s.Topics.ApplyRemote(records)
		log.Info("Sync abgeschlossen.", zap.Int("records", len(records)), zap.Int("topics", total))
		return len(records)
	}

	s.Logger.Warn("Keine Sync-Quelle erreichbar, lokaler Stand bleibt unverändert.")
	return 0
}
