package models

import "time"

// GenerationRequest ist der Body für den Ideen-Webhook.
type GenerationRequest struct {
	Keyword           string      `json:"keyword" binding:"required"`
	Product           string      `json:"product"`
	ContentType       ContentType `json:"contentType"`
	URL               string      `json:"url,omitempty"`
	PreferredAngles   []string    `json:"preferredAngles"`
	UnpreferredAngles []string    `json:"unpreferredAngles"`

	// Kanal-spezifische Vorgaben, werden an die erzeugten Topics vererbt
	PlatformType     string `json:"platformType,omitempty"`
	TargetAudience   string `json:"targetAudience,omitempty"`
	ContentGoal      string `json:"contentGoal,omitempty"`
	ToneVoice        string `json:"toneVoice,omitempty"`
	AnchorText       string `json:"anchorText,omitempty"`
	DestinationURL   string `json:"destinationUrl,omitempty"`
	BacklinkPlatform string `json:"backlinkPlatform,omitempty"`
	WordCount        int    `json:"wordCount,omitempty"`
	LinkPlacement    string `json:"linkPlacement,omitempty"`
}

// ReviewRequest beschreibt eine Review-Aktion auf einem Topic.
type ReviewRequest struct {
	Status     Status     `json:"status" binding:"required"`
	Reason     string     `json:"reason,omitempty"`
	ScheduleAt *time.Time `json:"scheduleAt,omitempty"`
}

// ArticleFeedback geht an den Feedback-Webhook, wenn ein Artikel bewertet wurde.
type ArticleFeedback struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// SocialAction geht an den Social-Webhook (Freigabe/Planung eines Posts).
type SocialAction struct {
	Topic    ContentTopic `json:"topic"`
	Action   string       `json:"action"`
	Schedule *time.Time   `json:"schedule,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}
