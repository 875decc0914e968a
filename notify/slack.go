package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"content-hand/models"
)

// SlackNotifier informiert den Review-Kanal über neue Inhalte und Review-Entscheidungen.
// Ohne Token oder Kanal ist er ein No-Op.
type SlackNotifier struct {
	api     *slack.Client
	channel string
	logger  *zap.Logger
}

// NewSlackNotifier erstellt einen neuen Notifier. opts werden an slack.New durchgereicht.
func NewSlackNotifier(token, channel string, logger *zap.Logger, opts ...slack.Option) *SlackNotifier {
	n := &SlackNotifier{channel: channel, logger: logger}
	if token != "" && channel != "" {
		n.api = slack.New(token, opts...)
	} else {
		logger.Info("Slack ist nicht konfiguriert, Benachrichtigungen sind deaktiviert.")
	}
	return n
}

// Enabled meldet, ob Nachrichten tatsächlich verschickt werden.
func (n *SlackNotifier) Enabled() bool {
	return n != nil && n.api != nil
}

// ContentReady meldet, dass für ein Topic Content zur Prüfung bereitliegt.
func (n *SlackNotifier) ContentReady(ctx context.Context, topic models.ContentTopic) error {
	return n.post(ctx, contentReadyText(topic))
}

// ReviewDone meldet eine Review-Entscheidung.
func (n *SlackNotifier) ReviewDone(ctx context.Context, topic models.ContentTopic, reason string) error {
	return n.post(ctx, reviewText(topic, reason))
}

func (n *SlackNotifier) post(ctx context.Context, text string) error {
	if !n.Enabled() {
		return nil
	}
	block := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(block),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

func contentReadyText(topic models.ContentTopic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Neuer Content zur Prüfung:* %s\n", topic.Title)
	fmt.Fprintf(&b, "Typ: %s | Keyword: %s | Produkt: %s", topic.ContentType, topic.Keyword, topic.Product)
	if v := topic.ValidatorData; v != nil {
		fmt.Fprintf(&b, "\nValidator: %s (SEO %.1f, Lesbarkeit %.1f, Marke %.1f)",
			v.Status, v.SEOScore, v.ReadabilityScore, v.BrandAlignment)
	}
	return b.String()
}

func reviewText(topic models.ContentTopic, reason string) string {
	text := fmt.Sprintf("*%s* → %s", topic.Title, topic.Status)
	if reason != "" {
		text += fmt.Sprintf("\nBegründung: %s", reason)
	}
	return text
}
