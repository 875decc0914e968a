package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"content-hand/models"
)

// defaultSaveTimeout begrenzt Hintergrund-Saves, die keinen Request-Kontext haben.
const defaultSaveTimeout = 30 * time.Second

// TopicStore ist der Teil des Remote-Stores, den die Sammlung zum Schreiben braucht.
type TopicStore interface {
	Upsert(ctx context.Context, topic models.ContentTopic) error
	Delete(ctx context.Context, id string) error
}

// TopicCollection ist der In-Memory-Stand aller Topics, per ID adressiert.
// HTTP-Handler und der Cron-Sync greifen parallel zu, daher der Mutex.
type TopicCollection struct {
	mu     sync.RWMutex
	topics map[string]models.ContentTopic

	store       TopicStore
	normalizer  *Normalizer
	logger      *zap.Logger
	saveTimeout time.Duration
	pending     sync.WaitGroup

	// saving: IDs mit laufendem Hintergrund-Save. queued hält pro ID den neuesten wartenden Stand.
	saveMu sync.Mutex
	saving map[string]bool
	queued map[string]models.ContentTopic
}

// NewTopicCollection erstellt eine leere Sammlung.
func NewTopicCollection(store TopicStore, normalizer *Normalizer, logger *zap.Logger) *TopicCollection {
	return &TopicCollection{
		topics:      map[string]models.ContentTopic{},
		store:       store,
		normalizer:  normalizer,
		logger:      logger,
		saveTimeout: defaultSaveTimeout,
		saving:      map[string]bool{},
		queued:      map[string]models.ContentTopic{},
	}
}

// All liefert alle Topics, neueste zuerst.
func (c *TopicCollection) All() []models.ContentTopic {
	c.mu.RLock()
	out := make([]models.ContentTopic, 0, len(c.topics))
	for _, t := range c.topics {
		out = append(out, t)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get liefert das Topic mit der ID.
func (c *TopicCollection) Get(id string) (models.ContentTopic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.topics[id]
	return t, ok
}

// Len liefert die Anzahl der Topics.
func (c *TopicCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.topics)
}

// Upsert übernimmt das Topic sofort in den Speicher und persistiert es danach im Hintergrund.
// Saves derselben ID laufen nacheinander; Zwischenstände, die noch warten, werden vom neuesten
// ersetzt. Ein fehlgeschlagener Save wird nur geloggt, der nächste Sync gleicht ab.
func (c *TopicCollection) Upsert(t models.ContentTopic) {
	c.commit(t)

	if c.store == nil {
		return
	}
	c.saveMu.Lock()
	if c.saving[t.ID] {
		c.queued[t.ID] = t
		c.saveMu.Unlock()
		return
	}
	c.saving[t.ID] = true
	c.saveMu.Unlock()

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		for {
			c.persist(t)

			c.saveMu.Lock()
			next, ok := c.queued[t.ID]
			if !ok {
				delete(c.saving, t.ID)
				c.saveMu.Unlock()
				return
			}
			delete(c.queued, t.ID)
			c.saveMu.Unlock()
			t = next
		}
	}()
}

func (c *TopicCollection) persist(t models.ContentTopic) {
	ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
	defer cancel()
	if err := c.store.Upsert(ctx, t); err != nil {
		saveFailuresCounter.Inc()
		c.logger.Warn("Hintergrund-Save fehlgeschlagen.", zap.String("id", t.ID), zap.Error(err))
	}
}

// Save übernimmt das Topic in den Speicher und wartet auf den Remote-Save.
func (c *TopicCollection) Save(ctx context.Context, t models.ContentTopic) error {
	c.commit(t)
	if c.store == nil {
		return nil
	}
	if err := c.store.Upsert(ctx, t); err != nil {
		return fmt.Errorf("failed to save topic %s: %w", t.ID, err)
	}
	return nil
}

// Remove löscht zuerst im Remote-Store und erst bei Erfolg lokal.
func (c *TopicCollection) Remove(ctx context.Context, id string) error {
	if _, ok := c.Get(id); !ok {
		return models.ErrTopicNotFound
	}
	if c.store != nil {
		if err := c.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete topic %s: %w", id, err)
		}
	}
	c.mu.Lock()
	delete(c.topics, id)
	c.mu.Unlock()
	return nil
}

// ApplyRemote führt Remote-Datensätze per Reconcile zusammen und gibt die neue Anzahl zurück.
func (c *TopicCollection) ApplyRemote(records []map[string]any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = Reconcile(c.topics, records, c.normalizer)
	return len(c.topics)
}

// Wait blockiert, bis alle laufenden Hintergrund-Saves fertig sind.
func (c *TopicCollection) Wait() {
	c.pending.Wait()
}

func (c *TopicCollection) commit(t models.ContentTopic) {
	c.mu.Lock()
	c.topics[t.ID] = t
	c.mu.Unlock()
}
