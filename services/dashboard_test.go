package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"content-hand/config"
	"content-hand/models"
)

type fakeAutomation struct {
	mu sync.Mutex

	topicsBody  string
	contentBody string
	err         error
	feedbackErr error

	requests  []models.GenerationRequest
	feedbacks []models.ArticleFeedback
	actions   []models.SocialAction
}

func (a *fakeAutomation) GenerateTopics(ctx context.Context, req models.GenerationRequest) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	return a.topicsBody, a.err
}

func (a *fakeAutomation) GenerateContent(ctx context.Context, topic models.ContentTopic) (string, error) {
	return a.contentBody, a.err
}

func (a *fakeAutomation) SendFeedback(ctx context.Context, feedback models.ArticleFeedback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.feedbacks = append(a.feedbacks, feedback)
	return a.feedbackErr
}

func (a *fakeAutomation) SendSocialAction(ctx context.Context, action models.SocialAction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return a.feedbackErr
}

type fakeNotifier struct {
	mu      sync.Mutex
	ready   []string
	reviews []string
}

func (n *fakeNotifier) ContentReady(ctx context.Context, topic models.ContentTopic) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = append(n.ready, topic.ID)
	return nil
}

func (n *fakeNotifier) ReviewDone(ctx context.Context, topic models.ContentTopic, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviews = append(n.reviews, reason)
	return errors.New("slack down")
}

func newTestDashboard(t *testing.T, automation *fakeAutomation) (*Dashboard, *fakeNotifier) {
	t.Helper()
	settings, err := config.LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"), config.Webhooks{})
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	normalizer := testNormalizer()
	logger := zap.NewNop()
	topics := NewTopicCollection(&fakeStore{}, normalizer, logger)
	notifier := &fakeNotifier{}
	d := NewDashboard(topics, settings, automation, nil, notifier, normalizer, logger)
	t.Cleanup(d.Wait)
	return d, notifier
}

func TestGenerateTopics(t *testing.T) {
	t.Parallel()

	automation := &fakeAutomation{topicsBody: "```json\n{\"topics\":[{\"title\":\"A\"},{\"headline\":\"B\",\"product\":\"Other\"}]}\n```"}
	d, notifier := newTestDashboard(t, automation)
	if _, err := d.AddAngle(AnglePreferred, "how-to"); err != nil {
		t.Fatalf("AddAngle() error = %v", err)
	}

	got, err := d.GenerateTopics(context.Background(), models.GenerationRequest{Keyword: "kubernetes", Product: "Hand"})
	if err != nil {
		t.Fatalf("GenerateTopics() error = %v", err)
	}
	if len(got) != 2 || d.Topics.Len() != 2 {
		t.Fatalf("GenerateTopics() returned %d topics, collection has %d", len(got), d.Topics.Len())
	}
	if got[0].Title != "A" || got[0].Keyword != "kubernetes" || got[0].Product != "Hand" {
		t.Errorf("topic 0 = %+v", got[0])
	}
	if got[1].Title != "B" || got[1].Product != "Other" {
		t.Errorf("topic 1 = %+v", got[1])
	}
	if got[0].ContentType != models.ContentTypeArticle || got[0].Status != models.StatusPending {
		t.Errorf("topic 0 type/status = %q/%q", got[0].ContentType, got[0].Status)
	}

	req := automation.requests[0]
	if req.ContentType != models.ContentTypeArticle {
		t.Errorf("request ContentType = %q, want Article", req.ContentType)
	}
	if len(req.PreferredAngles) != 1 || req.PreferredAngles[0] != "how-to" {
		t.Errorf("request PreferredAngles = %v", req.PreferredAngles)
	}
	if len(notifier.ready) != 0 {
		t.Errorf("notified %d topics, want 0", len(notifier.ready))
	}
}

func TestGenerateTopicsOneShotSocial(t *testing.T) {
	t.Parallel()

	automation := &fakeAutomation{topicsBody: `[{"hook":"Ship faster","post":"Five habits of teams that ship every day","hashtags":["#devops"]}]`}
	d, notifier := newTestDashboard(t, automation)

	got, err := d.GenerateTopics(context.Background(), models.GenerationRequest{
		Keyword:      "devops",
		ContentType:  models.ContentTypeSocial,
		PlatformType: "LinkedIn",
	})
	if err != nil {
		t.Fatalf("GenerateTopics() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("GenerateTopics() returned %d topics, want 1", len(got))
	}
	topic := got[0]
	if topic.Status != models.StatusContentGenerated {
		t.Errorf("Status = %q, want ContentGenerated", topic.Status)
	}
	if topic.ContentType != models.ContentTypeSocial || topic.PlatformType != "LinkedIn" {
		t.Errorf("ContentType/PlatformType = %q/%q", topic.ContentType, topic.PlatformType)
	}
	if len(notifier.ready) != 1 {
		t.Errorf("notified %d topics, want 1", len(notifier.ready))
	}
}

func TestGenerateTopicsErrors(t *testing.T) {
	t.Parallel()

	t.Run("webhook failure", func(t *testing.T) {
		t.Parallel()
		automation := &fakeAutomation{err: &models.RemoteError{Target: "generation", StatusCode: 502}}
		d, _ := newTestDashboard(t, automation)
		_, err := d.GenerateTopics(context.Background(), models.GenerationRequest{Keyword: "k"})
		if !errors.Is(err, models.ErrRemoteUnavailable) {
			t.Errorf("GenerateTopics() error = %v, want ErrRemoteUnavailable", err)
		}
		if d.Topics.Len() != 0 {
			t.Errorf("collection has %d topics, want 0", d.Topics.Len())
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		t.Parallel()
		automation := &fakeAutomation{topicsBody: "Workflow could not be started"}
		d, _ := newTestDashboard(t, automation)
		_, err := d.GenerateTopics(context.Background(), models.GenerationRequest{Keyword: "k"})
		if !errors.Is(err, models.ErrMalformedResponse) {
			t.Errorf("GenerateTopics() error = %v, want ErrMalformedResponse", err)
		}
	})
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	automation := &fakeAutomation{contentBody: `{"output":{"content_html":"<h1>Guide</h1><p>Full article body</p>"},"seo":{"seo_title":"Guide | Hand"}}`}
	d, notifier := newTestDashboard(t, automation)
	d.Topics.commit(d.Normalizer.Normalize(map[string]any{"id": "t1", "title": "Guide", "status": "HumanApproved"}))

	got, err := d.GenerateContent(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if got.Status != models.StatusContentGenerated {
		t.Errorf("Status = %q, want ContentGenerated", got.Status)
	}
	if got.GeneratedContent == nil || got.GeneratedContent.SEOTitle != "Guide | Hand" {
		t.Fatalf("GeneratedContent = %+v", got.GeneratedContent)
	}
	if stored, _ := d.Topics.Get("t1"); stored.GeneratedContent == nil {
		t.Error("merged topic not stored")
	}
	if len(notifier.ready) != 1 || notifier.ready[0] != "t1" {
		t.Errorf("notified = %v, want [t1]", notifier.ready)
	}

	if _, err := d.GenerateContent(context.Background(), "missing"); !errors.Is(err, models.ErrTopicNotFound) {
		t.Errorf("GenerateContent(missing) error = %v, want ErrTopicNotFound", err)
	}
}

func TestReview(t *testing.T) {
	t.Parallel()

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDashboard(t, &fakeAutomation{})
		d.Topics.commit(models.ContentTopic{ID: "t1"})
		_, err := d.Review(context.Background(), "t1", models.ReviewRequest{Status: "Archived"})
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("Review() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("idea feedback runs in background", func(t *testing.T) {
		t.Parallel()
		automation := &fakeAutomation{feedbackErr: errors.New("webhook down")}
		d, notifier := newTestDashboard(t, automation)
		d.Topics.commit(models.ContentTopic{ID: "t1", Title: "Idea", Status: models.StatusPending})

		got, err := d.Review(context.Background(), "t1", models.ReviewRequest{Status: "human_approved", Reason: "good angle"})
		if err != nil {
			t.Fatalf("Review() error = %v", err)
		}
		if got.Status != models.StatusHumanApproved {
			t.Errorf("Status = %q, want HumanApproved", got.Status)
		}
		d.Wait()
		if len(automation.feedbacks) != 1 || automation.feedbacks[0].Reason != "good angle" {
			t.Errorf("feedbacks = %+v", automation.feedbacks)
		}
		if len(notifier.reviews) != 1 {
			t.Errorf("review notifications = %d, want 1", len(notifier.reviews))
		}
	})

	t.Run("article feedback failure keeps status", func(t *testing.T) {
		t.Parallel()
		automation := &fakeAutomation{feedbackErr: &models.RemoteError{Target: "feedback", StatusCode: 500}}
		d, _ := newTestDashboard(t, automation)
		d.Topics.commit(models.ContentTopic{ID: "t1", Status: models.StatusContentGenerated,
			GeneratedContent: &models.GeneratedContentData{ContentHTML: "<p>Body</p>"}})

		_, err := d.Review(context.Background(), "t1", models.ReviewRequest{Status: models.StatusArticleDraft})
		if !errors.Is(err, models.ErrRemoteUnavailable) {
			t.Fatalf("Review() error = %v, want ErrRemoteUnavailable", err)
		}
		if stored, _ := d.Topics.Get("t1"); stored.Status != models.StatusContentGenerated {
			t.Errorf("Status = %q, want unchanged ContentGenerated", stored.Status)
		}
		if automation.feedbacks[0].HTML != "<p>Body</p>" {
			t.Errorf("feedback HTML = %q", automation.feedbacks[0].HTML)
		}
	})

	t.Run("scheduled social post", func(t *testing.T) {
		t.Parallel()
		automation := &fakeAutomation{}
		d, _ := newTestDashboard(t, automation)
		d.Topics.commit(models.ContentTopic{ID: "s1", ContentType: models.ContentTypeSocial, Status: models.StatusContentGenerated,
			GeneratedContent: &models.GeneratedContentData{SocialPost: "Post text"}})

		at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		if _, err := d.Review(context.Background(), "s1", models.ReviewRequest{Status: models.StatusHumanApproved, ScheduleAt: &at}); err != nil {
			t.Fatalf("Review() error = %v", err)
		}
		if len(automation.actions) != 1 || automation.actions[0].Action != "schedule" {
			t.Fatalf("actions = %+v", automation.actions)
		}
		if len(automation.feedbacks) != 0 {
			t.Errorf("unexpected feedback calls: %+v", automation.feedbacks)
		}
	})
}

func TestSocialAction(t *testing.T) {
	t.Parallel()

	at := time.Now()
	tests := []struct {
		status   models.Status
		schedule *time.Time
		want     string
	}{
		{models.StatusHumanApproved, nil, "approve"},
		{models.StatusHumanApproved, &at, "schedule"},
		{models.StatusHumanRejected, &at, "reject"},
		{models.StatusArticleRejected, nil, "reject"},
	}
	for _, tt := range tests {
		if got := socialAction(tt.status, tt.schedule); got != tt.want {
			t.Errorf("socialAction(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestDeleteUnknownTopic(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(t, &fakeAutomation{})
	if err := d.Delete(context.Background(), "nope"); !errors.Is(err, models.ErrTopicNotFound) {
		t.Errorf("Delete() error = %v, want ErrTopicNotFound", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	src, _ := newTestDashboard(t, &fakeAutomation{})
	src.Topics.commit(src.Normalizer.Normalize(map[string]any{"id": "a", "title": "A", "seo_title": "S"}))
	src.Topics.commit(src.Normalizer.Normalize(map[string]any{"id": "b", "title": "B"}))
	data, err := src.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dst, _ := newTestDashboard(t, &fakeAutomation{})
	got, err := dst.Import(data)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(got) != 2 || dst.Topics.Len() != 2 {
		t.Fatalf("Import() returned %d topics, collection has %d", len(got), dst.Topics.Len())
	}
	if a, _ := dst.Topics.Get("a"); a.GeneratedContent == nil || a.GeneratedContent.SEOTitle != "S" {
		t.Errorf("imported topic a = %+v", a)
	}

	if _, err := dst.Import([]byte("definitely not json")); !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("Import(garbage) error = %v, want ErrMalformedResponse", err)
	}
}

func TestSettingsOperations(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(t, &fakeAutomation{})

	if _, err := d.SetTheme("blue"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("SetTheme(blue) error = %v, want ErrInvalidInput", err)
	}
	s, err := d.SetTheme("dark")
	if err != nil || s.Theme != "dark" {
		t.Errorf("SetTheme(dark) = %+v, %v", s, err)
	}

	d.AddAngle(AngleUnpreferred, "listicle")
	s, _ = d.AddAngle(AngleUnpreferred, "listicle")
	if len(s.UnpreferredAngles) != 1 {
		t.Errorf("UnpreferredAngles = %v, want one entry", s.UnpreferredAngles)
	}
	s, _ = d.RemoveAngle(AngleUnpreferred, "listicle")
	if len(s.UnpreferredAngles) != 0 {
		t.Errorf("UnpreferredAngles = %v, want empty", s.UnpreferredAngles)
	}
	if _, err := d.AddAngle("sideways", "x"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("AddAngle(sideways) error = %v, want ErrInvalidInput", err)
	}

	s, err = d.SetWebhooks(config.Webhooks{Generation: "https://hooks.example/gen"})
	if err != nil || s.Webhooks.Generation != "https://hooks.example/gen" {
		t.Errorf("SetWebhooks() = %+v, %v", s.Webhooks, err)
	}
}

func TestMarkdownUnknownTopic(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(t, &fakeAutomation{})
	if _, err := d.Markdown("nope"); !errors.Is(err, models.ErrTopicNotFound) {
		t.Errorf("Markdown() error = %v, want ErrTopicNotFound", err)
	}
}
