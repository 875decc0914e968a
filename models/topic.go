package models

import "time"

// ContentType unterscheidet die Kanäle, für die Content erzeugt wird.
type ContentType string

const (
	ContentTypeArticle   ContentType = "Article"
	ContentTypeSocial    ContentType = "SocialMedia"
	ContentTypeBacklinks ContentType = "BacklinksContent"
)

// OneShot meldet, ob der Kanal die Ideen-Freigabe überspringt und direkt fertigen Content liefert.
func (c ContentType) OneShot() bool {
	return c == ContentTypeSocial || c == ContentTypeBacklinks
}

// Status ist der Workflow-Status eines Topics.
type Status string

const (
	StatusPending          Status = "Pending"
	StatusAiApproved       Status = "AiApproved"
	StatusAiRejected       Status = "AiRejected"
	StatusHumanApproved    Status = "HumanApproved"
	StatusHumanRejected    Status = "HumanRejected"
	StatusContentGenerated Status = "ContentGenerated"
	StatusArticleDraft     Status = "ArticleDraft"
	StatusArticleRejected  Status = "ArticleRejected"
)

// AllStatuses listet alle gültigen Status in Workflow-Reihenfolge.
var AllStatuses = []Status{
	StatusPending,
	StatusAiApproved,
	StatusAiRejected,
	StatusHumanApproved,
	StatusHumanRejected,
	StatusContentGenerated,
	StatusArticleDraft,
	StatusArticleRejected,
}

const (
	FallbackKeyword = "Unknown"
	FallbackProduct = "Unknown"
	FallbackTitle   = "Untitled Topic"
)

// ContentTopic ist eine Arbeitseinheit im Ideation → Generierung → Review Workflow.
type ContentTopic struct {
	ID          string      `json:"id"`
	Keyword     string      `json:"keyword"`
	Product     string      `json:"product"`
	ContentType ContentType `json:"contentType"`
	Title       string      `json:"title"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`

	GeneratedContent *GeneratedContentData `json:"generatedContent,omitempty"`
	ValidatorData    *ValidationReport     `json:"validatorData,omitempty"`

	// Social
	PlatformType   string `json:"platformType,omitempty"`
	TargetAudience string `json:"targetAudience,omitempty"`
	ContentGoal    string `json:"contentGoal,omitempty"`
	ToneVoice      string `json:"toneVoice,omitempty"`
	CallToAction   string `json:"callToAction,omitempty"`

	// Backlinks
	AnchorText       string `json:"anchorText,omitempty"`
	DestinationURL   string `json:"destinationUrl,omitempty"`
	BacklinkPlatform string `json:"backlinkPlatform,omitempty"`
	WordCount        int    `json:"wordCount,omitempty"`
	LinkPlacement    string `json:"linkPlacement,omitempty"`
	DocumentURL      string `json:"documentUrl,omitempty"`
}

// Section ist ein Abschnitt des generierten Artikeltexts.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// FAQEntry ist ein Frage/Antwort-Paar.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GeneratedContentData enthält alles, was die Content-Generierung geliefert hat. Alle Felder sind optional.
type GeneratedContentData struct {
	Title           string     `json:"title,omitempty"`
	H1              string     `json:"h1,omitempty"`
	Slug            string     `json:"slug,omitempty"`
	Sections        []Section  `json:"sections,omitempty"`
	FAQ             []FAQEntry `json:"faq,omitempty"`
	SEOTitle        string     `json:"seo_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	ContentHTML     string     `json:"content_html,omitempty"`
	FeaturedImage   string     `json:"featured_image,omitempty"`
	SocialPost      string     `json:"socialPost,omitempty"`
	Hashtags        []string   `json:"hashtags,omitempty"`
	CallToAction    string     `json:"callToAction,omitempty"`
	FocusKeyword    string     `json:"focus_keyword,omitempty"`
	RelatedKeywords []string   `json:"related_keywords,omitempty"`
}

// IsEmpty meldet, ob kein einziges Feld gesetzt ist.
func (g *GeneratedContentData) IsEmpty() bool {
	if g == nil {
		return true
	}
	return g.Title == "" && g.H1 == "" && g.Slug == "" && len(g.Sections) == 0 && len(g.FAQ) == 0 &&
		g.SEOTitle == "" && g.MetaDescription == "" && g.ContentHTML == "" && g.FeaturedImage == "" &&
		g.SocialPost == "" && len(g.Hashtags) == 0 && g.CallToAction == "" && g.FocusKeyword == "" &&
		len(g.RelatedKeywords) == 0
}

// Body liefert den Fließtext, egal über welchen Kanal er kam.
func (g *GeneratedContentData) Body() string {
	if g == nil {
		return ""
	}
	if g.ContentHTML != "" {
		return g.ContentHTML
	}
	return g.SocialPost
}

// ValidationReport ist das Ergebnis des Qualitäts-Validators. Scores sind nominell 0–10, werden aber nicht begrenzt.
type ValidationReport struct {
	Timestamp       string   `json:"timestamp,omitempty"`
	Status          string   `json:"status"`
	Summary         string   `json:"summary"`
	Reasons         []string `json:"reasons"`
	Recommendations []string `json:"recommendations"`
	FixSuggestions  []string `json:"fix_suggestions"`

	SEOScore         float64 `json:"seo_score"`
	ReadabilityScore float64 `json:"readability_score"`
	BrandAlignment   float64 `json:"brand_alignment"`
	FactualAccuracy  float64 `json:"factual_accuracy"`
	EngagementScore  float64 `json:"engagement_score"`
}
