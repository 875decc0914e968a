package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"content-hand/config"
	"content-hand/models"
)

// feedbackTimeout begrenzt Feedback-Aufrufe, die im Hintergrund laufen.
const feedbackTimeout = 2 * time.Minute

// Automation sind die Webhooks, über die Content erzeugt und Feedback gemeldet wird.
type Automation interface {
	GenerateTopics(ctx context.Context, req models.GenerationRequest) (string, error)
	GenerateContent(ctx context.Context, topic models.ContentTopic) (string, error)
	SendFeedback(ctx context.Context, feedback models.ArticleFeedback) error
	SendSocialAction(ctx context.Context, action models.SocialAction) error
}

// ReviewNotifier informiert Reviewer über neue Inhalte und Entscheidungen.
type ReviewNotifier interface {
	ContentReady(ctx context.Context, topic models.ContentTopic) error
	ReviewDone(ctx context.Context, topic models.ContentTopic, reason string) error
}

// Dashboard ist der Anwendungszustand: Topics, Settings und die externen Systeme.
type Dashboard struct {
	Topics     *TopicCollection
	Settings   *config.SettingsStore
	Automation Automation
	Syncer     *Syncer
	Notifier   ReviewNotifier
	Normalizer *Normalizer
	Logger     *zap.Logger

	background sync.WaitGroup
}

// NewDashboard verdrahtet den Anwendungszustand. notifier darf nil sein.
func NewDashboard(topics *TopicCollection, settings *config.SettingsStore, automation Automation,
	syncer *Syncer, notifier ReviewNotifier, normalizer *Normalizer, logger *zap.Logger) *Dashboard {
	return &Dashboard{
		Topics:     topics,
		Settings:   settings,
		Automation: automation,
		Syncer:     syncer,
		Notifier:   notifier,
		Normalizer: normalizer,
		Logger:     logger,
	}
}

// Init führt den initialen Sync aus.
func (d *Dashboard) Init(ctx context.Context) int {
	n := d.Sync(ctx)
	d.Logger.Info("Dashboard initialisiert.", zap.Int("synced", n), zap.Int("topics", d.Topics.Len()))
	return n
}

// Sync lädt den Remote-Stand; Fehler werden nie nach außen gegeben.
func (d *Dashboard) Sync(ctx context.Context) int {
	if d.Syncer == nil {
		return 0
	}
	return d.Syncer.Sync(ctx)
}

// Wait wartet auf Hintergrund-Feedback und Hintergrund-Saves.
func (d *Dashboard) Wait() {
	d.background.Wait()
	d.Topics.Wait()
}

// GenerateTopics fordert neue Topics an. Jeder gelieferte Datensatz wird auf Basis der
// Anfrage-Werte normalisiert und übernommen.
func (d *Dashboard) GenerateTopics(ctx context.Context, req models.GenerationRequest) ([]models.ContentTopic, error) {
	if req.ContentType == "" {
		req.ContentType = models.ContentTypeArticle
	}
	settings := d.Settings.Snapshot()
	if req.PreferredAngles == nil {
		req.PreferredAngles = settings.PreferredAngles
	}
	if req.UnpreferredAngles == nil {
		req.UnpreferredAngles = settings.UnpreferredAngles
	}

	log := d.Logger.With(zap.String("keyword", req.Keyword), zap.String("content_type", string(req.ContentType)))
	log.Info("Fordere Topics an.")

	body, err := d.Automation.GenerateTopics(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generation webhook: %w", err)
	}
	records, err := MapTopicsResponse(body)
	if err != nil {
		log.Warn("Antwort des Generierungs-Webhooks nicht lesbar.", zap.Error(err))
		return nil, err
	}

	defaults := requestDefaults(req)
	topics := make([]models.ContentTopic, 0, len(records))
	for _, rec := range records {
		raw := make(map[string]any, len(defaults)+len(rec))
		for k, v := range defaults {
			raw[k] = v
		}
		for k, v := range rec {
			raw[k] = v
		}
		t := d.Normalizer.Normalize(raw)
		d.Topics.Upsert(t)
		topicsGeneratedCounter.Inc()
		topics = append(topics, t)

		if t.Status == models.StatusContentGenerated {
			d.notifyContentReady(ctx, t)
		}
	}
	log.Info("Topics übernommen.", zap.Int("count", len(topics)))
	return topics, nil
}

// requestDefaults sind die Felder, die jedes erzeugte Topic von der Anfrage erbt.
func requestDefaults(req models.GenerationRequest) map[string]any {
	out := map[string]any{
		"keyword":     req.Keyword,
		"product":     req.Product,
		"contentType": string(req.ContentType),
	}
	for k, v := range map[string]string{
		"platformType":     req.PlatformType,
		"targetAudience":   req.TargetAudience,
		"contentGoal":      req.ContentGoal,
		"toneVoice":        req.ToneVoice,
		"anchorText":       req.AnchorText,
		"destinationUrl":   req.DestinationURL,
		"backlinkPlatform": req.BacklinkPlatform,
		"linkPlacement":    req.LinkPlacement,
	} {
		if v != "" {
			out[k] = v
		}
	}
	if req.WordCount > 0 {
		out["wordCount"] = float64(req.WordCount)
	}
	return out
}

// GenerateContent lässt den Content für ein Topic erzeugen und mergt das Ergebnis.
func (d *Dashboard) GenerateContent(ctx context.Context, id string) (models.ContentTopic, error) {
	t, ok := d.Topics.Get(id)
	if !ok {
		return models.ContentTopic{}, models.ErrTopicNotFound
	}
	log := d.Logger.With(zap.String("id", id))
	log.Info("Fordere Content an.")

	body, err := d.Automation.GenerateContent(ctx, t)
	if err != nil {
		return models.ContentTopic{}, fmt.Errorf("content webhook: %w", err)
	}
	fragment, err := MapContentResponse(body)
	if err != nil {
		log.Warn("Antwort des Content-Webhooks nicht lesbar.", zap.Error(err))
		return models.ContentTopic{}, err
	}

	// zwischenzeitliche Änderungen (Sync, Review) nicht überschreiben
	if current, ok := d.Topics.Get(id); ok {
		t = current
	}
	merged := d.Normalizer.Merge(t, fragment)
	d.Topics.Upsert(merged)
	log.Info("Content übernommen.", zap.String("status", string(merged.Status)))

	d.notifyContentReady(ctx, merged)
	return merged, nil
}

// Review setzt den Status eines Topics und meldet die Entscheidung an die Automation.
// Artikel- und Social-Reviews warten auf den Webhook; Ideen-Feedback läuft im Hintergrund.
func (d *Dashboard) Review(ctx context.Context, id string, req models.ReviewRequest) (models.ContentTopic, error) {
	status, ok := knownStatus(req.Status)
	if !ok {
		return models.ContentTopic{}, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, req.Status)
	}
	t, ok := d.Topics.Get(id)
	if !ok {
		return models.ContentTopic{}, models.ErrTopicNotFound
	}
	t.Status = status
	log := d.Logger.With(zap.String("id", id), zap.String("status", string(status)))

	switch reviewKind(t) {
	case reviewSocial:
		action := models.SocialAction{Topic: t, Action: socialAction(status, req.ScheduleAt), Schedule: req.ScheduleAt, Reason: req.Reason}
		if err := d.Automation.SendSocialAction(ctx, action); err != nil {
			return models.ContentTopic{}, fmt.Errorf("social webhook: %w", err)
		}
	case reviewArticle:
		if err := d.Automation.SendFeedback(ctx, articleFeedback(t, req.Reason)); err != nil {
			return models.ContentTopic{}, fmt.Errorf("feedback webhook: %w", err)
		}
	default:
		d.sendFeedbackAsync(articleFeedback(t, req.Reason))
	}

	d.Topics.Upsert(t)
	log.Info("Review übernommen.")

	if d.Notifier != nil {
		if err := d.Notifier.ReviewDone(ctx, t, req.Reason); err != nil {
			log.Warn("Review-Benachrichtigung fehlgeschlagen.", zap.Error(err))
		}
	}
	return t, nil
}

type reviewType int

const (
	reviewIdea reviewType = iota
	reviewArticle
	reviewSocial
)

// reviewKind: Social-Posts gehen an den Social-Webhook, Artikel mit Content an den Feedback-Webhook,
// alles andere ist eine Ideen-Freigabe.
func reviewKind(t models.ContentTopic) reviewType {
	if t.ContentType == models.ContentTypeSocial && t.GeneratedContent.Body() != "" {
		return reviewSocial
	}
	switch t.Status {
	case models.StatusArticleDraft, models.StatusArticleRejected:
		return reviewArticle
	}
	return reviewIdea
}

func socialAction(status models.Status, schedule *time.Time) string {
	switch status {
	case models.StatusHumanRejected, models.StatusAiRejected, models.StatusArticleRejected:
		return "reject"
	}
	if schedule != nil {
		return "schedule"
	}
	return "approve"
}

func articleFeedback(t models.ContentTopic, reason string) models.ArticleFeedback {
	return models.ArticleFeedback{
		ID:     t.ID,
		Title:  t.Title,
		HTML:   t.GeneratedContent.Body(),
		Status: t.Status,
		Reason: reason,
	}
}

func (d *Dashboard) sendFeedbackAsync(feedback models.ArticleFeedback) {
	d.background.Add(1)
	go func() {
		defer d.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), feedbackTimeout)
		defer cancel()
		if err := d.Automation.SendFeedback(ctx, feedback); err != nil {
			d.Logger.Warn("Ideen-Feedback fehlgeschlagen.", zap.String("id", feedback.ID), zap.Error(err))
		}
	}()
}

func (d *Dashboard) notifyContentReady(ctx context.Context, t models.ContentTopic) {
	if d.Notifier == nil {
		return
	}
	if err := d.Notifier.ContentReady(ctx, t); err != nil {
		d.Logger.Warn("Slack-Benachrichtigung fehlgeschlagen.", zap.String("id", t.ID), zap.Error(err))
	}
}

func knownStatus(s models.Status) (models.Status, bool) {
	key := NormalizeKey(string(s))
	for _, st := range models.AllStatuses {
		if NormalizeKey(string(st)) == key {
			return st, true
		}
	}
	return "", false
}

// Delete löscht im Remote-Store und danach lokal.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	if err := d.Topics.Remove(ctx, id); err != nil {
		return err
	}
	d.Logger.Info("Topic gelöscht.", zap.String("id", id))
	return nil
}

// Export liefert alle Topics als JSON-Array.
func (d *Dashboard) Export() ([]byte, error) {
	return json.MarshalIndent(d.Topics.All(), "", "  ")
}

// Import liest einen Export tolerant ein; jeder Datensatz wird neu normalisiert.
func (d *Dashboard) Import(data []byte) ([]models.ContentTopic, error) {
	records, err := MapSyncResponse(string(data))
	if err != nil {
		return nil, err
	}
	out := make([]models.ContentTopic, 0, len(records))
	for _, rec := range records {
		t := d.Normalizer.Normalize(rec)
		d.Topics.Upsert(t)
		out = append(out, t)
	}
	d.Logger.Info("Import abgeschlossen.", zap.Int("count", len(out)))
	return out, nil
}

// Markdown rendert den Artikel eines Topics als Markdown.
func (d *Dashboard) Markdown(id string) (string, error) {
	t, ok := d.Topics.Get(id)
	if !ok {
		return "", models.ErrTopicNotFound
	}
	return TopicMarkdown(t)
}

// AngleKind unterscheidet die beiden Angle-Listen.
type AngleKind string

const (
	AnglePreferred   AngleKind = "preferred"
	AngleUnpreferred AngleKind = "unpreferred"
)

// AddAngle fügt einen Angle hinzu (dedupliziert) und persistiert die Settings.
func (d *Dashboard) AddAngle(kind AngleKind, angle string) (config.Settings, error) {
	return d.updateAngles(kind, func(list []string) []string { return config.AddAngle(list, angle) })
}

// RemoveAngle entfernt einen Angle und persistiert die Settings.
func (d *Dashboard) RemoveAngle(kind AngleKind, angle string) (config.Settings, error) {
	return d.updateAngles(kind, func(list []string) []string { return config.RemoveAngle(list, angle) })
}

func (d *Dashboard) updateAngles(kind AngleKind, fn func([]string) []string) (config.Settings, error) {
	switch kind {
	case AnglePreferred:
		return d.Settings.Update(func(s *config.Settings) { s.PreferredAngles = fn(s.PreferredAngles) })
	case AngleUnpreferred:
		return d.Settings.Update(func(s *config.Settings) { s.UnpreferredAngles = fn(s.UnpreferredAngles) })
	}
	return config.Settings{}, fmt.Errorf("%w: unknown angle list %q", models.ErrInvalidInput, kind)
}

// SetTheme speichert das UI-Theme ("light" oder "dark").
func (d *Dashboard) SetTheme(theme string) (config.Settings, error) {
	if theme != "light" && theme != "dark" {
		return config.Settings{}, fmt.Errorf("%w: unknown theme %q", models.ErrInvalidInput, theme)
	}
	return d.Settings.Update(func(s *config.Settings) { s.Theme = theme })
}

// SetWebhooks speichert die Webhook-URLs; leere Felder fallen auf die Env-Defaults zurück.
func (d *Dashboard) SetWebhooks(w config.Webhooks) (config.Settings, error) {
	return d.Settings.Update(func(s *config.Settings) { s.Webhooks = w })
}
