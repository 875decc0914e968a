package services

import (
	"context"
	"sync"

	"content-hand/models"
)

// fakeStore zeichnet Aufrufe auf und kann Fehler bzw. Blockaden simulieren.
type fakeStore struct {
	mu        sync.Mutex
	upserts   []models.ContentTopic
	deletes   []string
	upsertErr error
	deleteErr error
	block     chan struct{}
}

func (s *fakeStore) Upsert(ctx context.Context, topic models.ContentTopic) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, topic)
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes = append(s.deletes, id)
	return nil
}

func (s *fakeStore) upserted() []models.ContentTopic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ContentTopic(nil), s.upserts...)
}

type fakeSource struct {
	name    string
	records []map[string]any
	err     error
	calls   int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) FetchAll(ctx context.Context) ([]map[string]any, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}
