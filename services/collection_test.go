package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"content-hand/models"
)

func TestUpsertCommitsBeforePersisting(t *testing.T) {
	t.Parallel()

	store := &fakeStore{block: make(chan struct{})}
	c := NewTopicCollection(store, testNormalizer(), zap.NewNop())

	c.Upsert(models.ContentTopic{ID: "a", Title: "A"})
	if got, ok := c.Get("a"); !ok || got.Title != "A" {
		t.Fatalf("Get(a) = %+v, %v before persistence finished", got, ok)
	}
	if n := len(store.upserted()); n != 0 {
		t.Fatalf("store saw %d upserts while blocked", n)
	}

	close(store.block)
	c.Wait()
	if n := len(store.upserted()); n != 1 {
		t.Errorf("store saw %d upserts, want 1", n)
	}
}

func TestUpsertSwallowsStoreFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{upsertErr: &models.RemoteError{Target: "rest-store", StatusCode: 500}}
	c := NewTopicCollection(store, testNormalizer(), zap.NewNop())

	c.Upsert(models.ContentTopic{ID: "a"})
	c.Wait()
	if _, ok := c.Get("a"); !ok {
		t.Error("topic missing after failed background save")
	}
}

func TestUpsertPersistsSameIDInOrder(t *testing.T) {
	t.Parallel()

	store := &fakeStore{block: make(chan struct{})}
	c := NewTopicCollection(store, testNormalizer(), zap.NewNop())

	c.Upsert(models.ContentTopic{ID: "a", Title: "v1"})
	c.Upsert(models.ContentTopic{ID: "b", Title: "other"})
	c.Upsert(models.ContentTopic{ID: "a", Title: "v2"})
	c.Upsert(models.ContentTopic{ID: "a", Title: "v3"})
	if got, _ := c.Get("a"); got.Title != "v3" {
		t.Fatalf("Get(a).Title = %q, want v3", got.Title)
	}

	close(store.block)
	c.Wait()

	var titles []string
	for _, topic := range store.upserted() {
		if topic.ID == "a" {
			titles = append(titles, topic.Title)
		}
	}
	if len(titles) != 2 || titles[0] != "v1" || titles[1] != "v3" {
		t.Errorf("saves of a = %v, want [v1 v3]", titles)
	}
	if n := len(store.upserted()); n != 3 {
		t.Errorf("store saw %d upserts, want 3", n)
	}
}

func TestSaveReturnsStoreError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{upsertErr: &models.RemoteError{Target: "rest-store", StatusCode: 401}}
	c := NewTopicCollection(store, testNormalizer(), zap.NewNop())

	err := c.Save(context.Background(), models.ContentTopic{ID: "a"})
	if !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("Save() error = %v, want ErrPermissionDenied", err)
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Save() did not commit locally")
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		c := NewTopicCollection(&fakeStore{}, testNormalizer(), zap.NewNop())
		if err := c.Remove(context.Background(), "missing"); !errors.Is(err, models.ErrTopicNotFound) {
			t.Errorf("Remove() error = %v, want ErrTopicNotFound", err)
		}
	})

	t.Run("remote failure keeps local", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{deleteErr: &models.RemoteError{Target: "rest-store", Err: errors.New("timeout")}}
		c := NewTopicCollection(store, testNormalizer(), zap.NewNop())
		c.commit(models.ContentTopic{ID: "a"})

		err := c.Remove(context.Background(), "a")
		if !errors.Is(err, models.ErrRemoteUnavailable) {
			t.Fatalf("Remove() error = %v, want ErrRemoteUnavailable", err)
		}
		if _, ok := c.Get("a"); !ok {
			t.Error("topic removed locally although remote delete failed")
		}
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{}
		c := NewTopicCollection(store, testNormalizer(), zap.NewNop())
		c.commit(models.ContentTopic{ID: "a"})

		if err := c.Remove(context.Background(), "a"); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if _, ok := c.Get("a"); ok {
			t.Error("topic still present after Remove()")
		}
		if len(store.deletes) != 1 || store.deletes[0] != "a" {
			t.Errorf("store deletes = %v, want [a]", store.deletes)
		}
	})
}

func TestAllOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	c := NewTopicCollection(nil, testNormalizer(), zap.NewNop())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.commit(models.ContentTopic{ID: "old", CreatedAt: base})
	c.commit(models.ContentTopic{ID: "new", CreatedAt: base.Add(time.Hour)})
	c.commit(models.ContentTopic{ID: "b", CreatedAt: base.Add(time.Minute)})
	c.commit(models.ContentTopic{ID: "a", CreatedAt: base.Add(time.Minute)})

	var ids []string
	for _, topic := range c.All() {
		ids = append(ids, topic.ID)
	}
	want := []string{"new", "a", "b", "old"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("All() order = %v, want %v", ids, want)
		}
	}
}

func TestApplyRemote(t *testing.T) {
	t.Parallel()

	c := NewTopicCollection(nil, testNormalizer(), zap.NewNop())
	c.commit(models.ContentTopic{ID: "local", Title: "L"})
	if n := c.ApplyRemote([]map[string]any{{"id": "remote", "title": "R"}}); n != 2 {
		t.Errorf("ApplyRemote() = %d, want 2", n)
	}
	if got, _ := c.Get("remote"); got.Title != "R" {
		t.Errorf("remote topic = %+v", got)
	}
}
