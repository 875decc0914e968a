package services

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"content-hand/models"
)

// Alias-Listen pro Feld. Auf Topic-Ebene ist die erste Variante der kanonische Schlüssel, damit
// eine zweite Normalisierung denselben Wert wiederfindet. snake_case und camelCase müssen nicht
// doppelt aufgeführt werden, NormalizeKey macht sie gleich.
var (
	idKeys          = []string{"id"}
	titleKeys       = []string{"title", "topic", "hook", "headline", "header", "social_hook"}
	keywordKeys     = []string{"keyword", "main_keyword", "target_keyword"}
	productKeys     = []string{"product", "product_name"}
	contentTypeKeys = []string{"contentType", "content_type", "channel"}
	statusKeys      = []string{"status", "workflow_status"}
	createdAtKeys   = []string{"createdAt", "created", "created_on"}
	generatedKeys   = []string{"generatedContent", "generated_content"}

	seoContainerKeys       = []string{"seo", "seo_data", "metadata", "meta", "seo_metadata"}
	validatorContainerKeys = []string{"validatorData", "validation", "validator", "validation_report", "quality_report"}

	// Reihenfolge bestimmt die Priorität; featured_image steht vorne, damit der kanonische Wert gewinnt.
	featuredImageKeys = []string{
		"featured_image", "featured_image_url", "image_url", "image", "cover_image", "thumbnail",
		"og_image", "hero_image", "header_image", "picture_url", "photo", "banner", "main_image",
	}
)

// contentField beschreibt ein String-Feld von generatedContent.
type contentField struct {
	key     string
	aliases []string
	seo     bool
	set     func(*models.GeneratedContentData, string)
	get     func(*models.GeneratedContentData) string
}

var contentFields = []contentField{
	{key: "title", aliases: []string{"article_title", "content_title"},
		set: func(g *models.GeneratedContentData, v string) { g.Title = v },
		get: func(g *models.GeneratedContentData) string { return g.Title }},
	{key: "h1", aliases: []string{"h1", "main_heading"},
		set: func(g *models.GeneratedContentData, v string) { g.H1 = v },
		get: func(g *models.GeneratedContentData) string { return g.H1 }},
	{key: "slug", aliases: []string{"slug", "url_slug", "permalink"}, seo: true,
		set: func(g *models.GeneratedContentData, v string) { g.Slug = v },
		get: func(g *models.GeneratedContentData) string { return g.Slug }},
	{key: "seo_title", aliases: []string{"seo_title", "meta_title"}, seo: true,
		set: func(g *models.GeneratedContentData, v string) { g.SEOTitle = v },
		get: func(g *models.GeneratedContentData) string { return g.SEOTitle }},
	{key: "meta_description", aliases: []string{"meta_description", "meta_desc", "seo_description", "description"}, seo: true,
		set: func(g *models.GeneratedContentData, v string) { g.MetaDescription = v },
		get: func(g *models.GeneratedContentData) string { return g.MetaDescription }},
	{key: "content_html", aliases: []string{"content_html", "html", "html_content", "article_html", "body_html", "article"},
		set: func(g *models.GeneratedContentData, v string) { g.ContentHTML = v },
		get: func(g *models.GeneratedContentData) string { return g.ContentHTML }},
	{key: "socialPost", aliases: []string{"socialPost", "post", "post_text", "content", "text", "caption", "body"},
		set: func(g *models.GeneratedContentData, v string) { g.SocialPost = v },
		get: func(g *models.GeneratedContentData) string { return g.SocialPost }},
	{key: "callToAction", aliases: []string{"callToAction", "cta"},
		set: func(g *models.GeneratedContentData, v string) { g.CallToAction = v },
		get: func(g *models.GeneratedContentData) string { return g.CallToAction }},
	{key: "focus_keyword", aliases: []string{"focus_keyword", "focus_keyphrase"},
		set: func(g *models.GeneratedContentData, v string) { g.FocusKeyword = v },
		get: func(g *models.GeneratedContentData) string { return g.FocusKeyword }},
}

var (
	hashtagKeys         = []string{"hashtags", "tags"}
	relatedKeywordKeys  = []string{"related_keywords", "secondary_keywords", "lsi_keywords"}
	sectionKeys         = []string{"sections", "body_sections", "content_sections", "outline"}
	faqKeys             = []string{"faq", "faqs", "faq_section", "questions"}
	sectionHeadingKeys  = []string{"heading", "title", "h2", "subheading"}
	sectionContentKeys  = []string{"content", "body", "text", "html", "paragraph"}
	faqQuestionKeys     = []string{"question", "q"}
	faqAnswerKeys       = []string{"answer", "a"}
	validatorUnwrapKeys = []string{"result", "data"}
)

// channelField beschreibt ein Kanal-spezifisches Feld auf Topic-Ebene.
type channelField struct {
	aliases []string
	set     func(*models.ContentTopic, string)
}

var channelFields = []channelField{
	{[]string{"platformType", "platform"}, func(t *models.ContentTopic, v string) { t.PlatformType = v }},
	{[]string{"targetAudience", "audience"}, func(t *models.ContentTopic, v string) { t.TargetAudience = v }},
	{[]string{"contentGoal", "goal"}, func(t *models.ContentTopic, v string) { t.ContentGoal = v }},
	{[]string{"toneVoice", "tone", "voice"}, func(t *models.ContentTopic, v string) { t.ToneVoice = v }},
	{[]string{"callToAction", "cta"}, func(t *models.ContentTopic, v string) { t.CallToAction = v }},
	{[]string{"anchorText", "anchor"}, func(t *models.ContentTopic, v string) { t.AnchorText = v }},
	{[]string{"destinationUrl", "target_url", "link_url"}, func(t *models.ContentTopic, v string) { t.DestinationURL = v }},
	{[]string{"backlinkPlatform"}, func(t *models.ContentTopic, v string) { t.BacklinkPlatform = v }},
	{[]string{"linkPlacement", "placement"}, func(t *models.ContentTopic, v string) { t.LinkPlacement = v }},
	{[]string{"documentUrl", "doc_url", "google_doc_url"}, func(t *models.ContentTopic, v string) { t.DocumentURL = v }},
}

var wordCountKeys = []string{"wordCount", "words", "length"}

// scoreFields: kanonischer Name zuerst, dann die Alternativen, unter denen Validatoren ihn liefern.
var scoreFields = []struct {
	aliases []string
	set     func(*models.ValidationReport, float64)
}{
	{[]string{"seo_score", "seo"}, func(r *models.ValidationReport, v float64) { r.SEOScore = v }},
	{[]string{"readability_score", "readability"}, func(r *models.ValidationReport, v float64) { r.ReadabilityScore = v }},
	{[]string{"brand_alignment", "brand_score", "brand", "consistency", "alignment"}, func(r *models.ValidationReport, v float64) { r.BrandAlignment = v }},
	{[]string{"factual_accuracy", "accuracy", "factual_score", "facts"}, func(r *models.ValidationReport, v float64) { r.FactualAccuracy = v }},
	{[]string{"engagement_score", "engagement"}, func(r *models.ValidationReport, v float64) { r.EngagementScore = v }},
}

// escalationMinLen: ab dieser Länge gilt ein Body als generierter Content.
const escalationMinLen = 10

// Normalizer bildet beliebig geformte Datensätze auf models.ContentTopic ab.
// Ohne I/O; deterministisch, solange NewID und Now es sind.
type Normalizer struct {
	NewID func() string
	Now   func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		NewID: uuid.NewString,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Normalize löst alle Felder über ihre Alias-Kaskaden auf.
func (n *Normalizer) Normalize(raw map[string]any) models.ContentTopic {
	if raw == nil {
		raw = map[string]any{}
	}
	existing := existingContent(raw)

	t := models.ContentTopic{
		ID:          flatString(raw, idKeys...),
		Keyword:     flatString(raw, keywordKeys...),
		Product:     flatString(raw, productKeys...),
		ContentType: ParseContentType(flatString(raw, contentTypeKeys...)),
		Status:      ParseStatus(flatString(raw, statusKeys...)),
	}
	if t.ID == "" {
		t.ID = n.NewID()
	}

	t.Title = flatString(raw, titleKeys...)
	if t.Title == "" && existing != nil {
		t.Title = existing.Title
	}
	if t.Title == "" {
		t.Title = t.Keyword
	}
	if t.Title == "" {
		t.Title = models.FallbackTitle
	}
	if t.Keyword == "" {
		t.Keyword = models.FallbackKeyword
	}
	if t.Product == "" {
		t.Product = models.FallbackProduct
	}

	t.CreatedAt = n.createdAt(raw)

	gc := buildGeneratedContent(raw, existing)
	if !gc.IsEmpty() {
		t.GeneratedContent = gc
	}
	t.ValidatorData = buildValidationReport(raw)

	if escalates(t.Status) && hasBody(gc) {
		t.Status = models.StatusContentGenerated
	}

	for _, f := range channelFields {
		f.set(&t, flatString(raw, f.aliases...))
	}
	if v, ok := firstFlat(raw, wordCountKeys...); ok {
		t.WordCount = int(ParseScore(v))
	}
	return t
}

// Merge normalisiert {...existing, ...fragment}. Felder, die das Fragment unter irgendeinem
// Alias mitbringt, ersetzen den bisherigen Wert; alle anderen bleiben erhalten.
func (n *Normalizer) Merge(existing models.ContentTopic, fragment map[string]any) models.ContentTopic {
	merged := toRaw(existing)
	dropSuperseded(merged, fragment)
	for k, v := range fragment {
		// id und createdAt sind unveränderlich
		if key := NormalizeKey(k); key == "id" || isCreatedAtKey(key) {
			continue
		}
		merged[k] = v
	}
	return n.Normalize(merged)
}

func (n *Normalizer) createdAt(raw map[string]any) time.Time {
	v, ok := firstFlat(raw, createdAtKeys...)
	if ok {
		if ts, ok := parseTimestamp(v); ok {
			return ts
		}
	}
	return n.Now()
}

func isCreatedAtKey(normalized string) bool {
	for _, k := range createdAtKeys {
		if NormalizeKey(k) == normalized {
			return true
		}
	}
	return false
}

// toRaw liefert die kanonische JSON-Form eines Topics als map.
func toRaw(t models.ContentTopic) map[string]any {
	// ContentTopic enthält nur serialisierbare Felder
	b, _ := json.Marshal(t)
	out := map[string]any{}
	_ = json.Unmarshal(b, &out)
	return out
}

// dropSuperseded entfernt aus merged die kanonischen Werte, die das Fragment unter einem anderen
// Alias neu liefert. Sonst würde der alte kanonische Schlüssel in der Kaskade vor dem Alias gewinnen.
func dropSuperseded(merged, fragment map[string]any) {
	topLevel := [][]string{titleKeys, keywordKeys, productKeys, contentTypeKeys, statusKeys, wordCountKeys}
	for _, f := range channelFields {
		topLevel = append(topLevel, f.aliases)
	}
	for _, aliases := range topLevel {
		if _, ok := firstFlat(fragment, aliases...); ok {
			delete(merged, aliases[0])
		}
	}
	if _, ok := firstFlat(fragment, validatorContainerKeys...); ok {
		delete(merged, "validatorData")
	}

	gc, ok := merged["generatedContent"].(map[string]any)
	if !ok {
		return
	}
	if _, ok := firstFlat(fragment, generatedKeys...); ok {
		return
	}
	seo := flatObject(fragment, seoContainerKeys...)
	for _, f := range contentFields {
		_, flat := firstFlat(fragment, f.aliases...)
		_, nested := firstFlat(seo, f.aliases...)
		if flat || (f.seo && nested) {
			delete(gc, f.key)
		}
	}
	for key, aliases := range map[string][]string{
		"hashtags":         hashtagKeys,
		"related_keywords": relatedKeywordKeys,
		"sections":         sectionKeys,
		"faq":              faqKeys,
	} {
		if _, ok := firstFlat(fragment, aliases...); ok {
			delete(gc, key)
		}
	}
	for _, key := range featuredImageKeys {
		if v, ok := FindByKey(fragment, key); ok && ExtractImageURL(v) != "" {
			delete(gc, "featured_image")
			break
		}
	}
}

// existingContent liest ein bereits vorhandenes generatedContent (Objekt oder JSON-String) über
// dieselben Kaskaden, damit auch verschachtelte Aliase erkannt werden.
func existingContent(raw map[string]any) *models.GeneratedContentData {
	obj := flatObject(raw, generatedKeys...)
	if obj == nil {
		return nil
	}
	gc := buildGeneratedContent(obj, nil)
	if gc.Title == "" {
		gc.Title = flatString(obj, "title")
	}
	return gc
}

func buildGeneratedContent(raw map[string]any, existing *models.GeneratedContentData) *models.GeneratedContentData {
	seo := flatObject(raw, seoContainerKeys...)
	gc := &models.GeneratedContentData{}

	for _, f := range contentFields {
		v := flatString(raw, f.aliases...)
		if v == "" && f.seo && seo != nil {
			v = flatString(seo, f.aliases...)
		}
		if v == "" && existing != nil {
			v = f.get(existing)
		}
		f.set(gc, v)
	}

	gc.Hashtags = stringList(raw, hashtagKeys)
	gc.RelatedKeywords = stringList(raw, relatedKeywordKeys)
	gc.Sections = sections(raw)
	gc.FAQ = faqEntries(raw)
	if existing != nil {
		if gc.Hashtags == nil {
			gc.Hashtags = existing.Hashtags
		}
		if gc.RelatedKeywords == nil {
			gc.RelatedKeywords = existing.RelatedKeywords
		}
		if gc.Sections == nil {
			gc.Sections = existing.Sections
		}
		if gc.FAQ == nil {
			gc.FAQ = existing.FAQ
		}
	}

	gc.FeaturedImage = featuredImage(raw)

	// content_html und socialPost sind austauschbarer Fließtext
	if gc.ContentHTML == "" && gc.SocialPost != "" {
		gc.ContentHTML = gc.SocialPost
	}
	if gc.SocialPost == "" && gc.ContentHTML != "" {
		gc.SocialPost = gc.ContentHTML
	}
	return gc
}

// featuredImage ist das einzige Feld, das per Tiefensuche gefunden wird.
func featuredImage(raw map[string]any) string {
	for _, key := range featuredImageKeys {
		v, ok := FindByKey(raw, key)
		if !ok {
			continue
		}
		if u := ExtractImageURL(v); u != "" {
			return u
		}
	}
	return ""
}

func buildValidationReport(raw map[string]any) *models.ValidationReport {
	container := GetObject(raw, validatorContainerKeys...)
	if container == nil {
		return nil
	}
	if inner := flatObject(container, validatorUnwrapKeys...); inner != nil {
		container = inner
	}

	r := &models.ValidationReport{
		Timestamp:       flatString(container, "timestamp", "validated_at", "checked_at"),
		Status:          flatString(container, "status", "validation_status", "verdict"),
		Summary:         flatString(container, "summary", "overall_assessment", "feedback"),
		Reasons:         reportList(container, "reasons", "issues"),
		Recommendations: reportList(container, "recommendations", "suggestions"),
		FixSuggestions:  reportList(container, "fix_suggestions", "fixes"),
	}
	if r.Status == "" {
		r.Status = "completed"
	}
	for _, f := range scoreFields {
		f.set(r, scoreFrom(container, f.aliases))
	}
	return r
}

// scoreFrom sucht direkt und eine Ebene tiefer (z.B. in "scores") nach dem ersten lesbaren Wert.
func scoreFrom(container map[string]any, aliases []string) float64 {
	for _, key := range aliases {
		v, ok := FindByKeyDepth(container, key, 1)
		if !ok {
			continue
		}
		if f, ok := parseScore(v); ok {
			return f
		}
	}
	return 0
}

// reportList liefert immer eine Liste; kein Array ergibt eine leere Liste.
func reportList(container map[string]any, keys ...string) []string {
	out := []string{}
	v, ok := firstFlat(container, keys...)
	if !ok {
		return out
	}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s := itemString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func itemString(v any) string {
	if s, ok := scalarString(v); ok {
		return strings.TrimSpace(s)
	}
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// stringList akzeptiert Arrays oder durch Komma/Leerzeichen getrennte Strings.
func stringList(raw map[string]any, keys []string) []string {
	v, ok := firstFlat(raw, keys...)
	if !ok {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := itemString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		out = strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sections(raw map[string]any) []models.Section {
	v, ok := firstFlat(raw, sectionKeys...)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []models.Section
	for _, item := range items {
		var s models.Section
		switch t := item.(type) {
		case string:
			s.Content = strings.TrimSpace(t)
		case map[string]any:
			s.Heading = flatString(t, sectionHeadingKeys...)
			s.Content = flatString(t, sectionContentKeys...)
		}
		if s.Heading != "" || s.Content != "" {
			out = append(out, s)
		}
	}
	return out
}

func faqEntries(raw map[string]any) []models.FAQEntry {
	v, ok := firstFlat(raw, faqKeys...)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []models.FAQEntry
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		e := models.FAQEntry{
			Question: flatString(obj, faqQuestionKeys...),
			Answer:   flatString(obj, faqAnswerKeys...),
		}
		if e.Question != "" || e.Answer != "" {
			out = append(out, e)
		}
	}
	return out
}

func escalates(s models.Status) bool {
	return s == models.StatusPending || s == models.StatusHumanApproved
}

func hasBody(gc *models.GeneratedContentData) bool {
	return utf8.RuneCountInString(gc.ContentHTML) > escalationMinLen ||
		utf8.RuneCountInString(gc.SocialPost) > escalationMinLen
}

// ParseStatus erkennt Status unabhängig von Schreibweise ("human_approved", "Human Approved").
// Leer oder unbekannt ergibt Pending.
func ParseStatus(s string) models.Status {
	key := NormalizeKey(s)
	for _, st := range models.AllStatuses {
		if NormalizeKey(string(st)) == key {
			return st
		}
	}
	return models.StatusPending
}

// ParseContentType erkennt den Kanal; leer oder unbekannt ergibt Article.
func ParseContentType(s string) models.ContentType {
	switch NormalizeKey(s) {
	case "socialmedia", "social", "socialpost", "post":
		return models.ContentTypeSocial
	case "backlinkscontent", "backlinks", "backlink", "backlinkcontent":
		return models.ContentTypeBacklinks
	}
	return models.ContentTypeArticle
}

// parseTimestamp akzeptiert RFC3339-Strings und Epoch-Millisekunden.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return ts, true
			}
		}
	case float64:
		if t > 0 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
	}
	return time.Time{}, false
}

// flatString sucht nur unter den direkten Eigenschaften.
func flatString(v any, keys ...string) string {
	return strings.TrimSpace(getStringDepth(v, 0, keys...))
}

func flatObject(v any, keys ...string) map[string]any {
	return getObjectDepth(v, 0, keys...)
}

func firstFlat(v any, keys ...string) (any, bool) {
	for _, key := range keys {
		if found, ok := FindByKeyDepth(v, key, 0); ok {
			return found, true
		}
	}
	return nil, false
}
