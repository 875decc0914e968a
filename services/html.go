package services

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"content-hand/models"
)

// looksLikeHTML meldet, ob eine Antwort roher HTML-Text statt JSON ist.
func looksLikeHTML(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "<")
}

// HTMLFragment baut aus einer rohen HTML-Antwort ein Content-Fragment für Merge.
func HTMLFragment(html string) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.MalformedResponseError{Snippet: models.Snippet(html, 100), Reason: fmt.Sprintf("parse html: %v", err)}
	}

	body, err := doc.Find("body").First().Html()
	if err != nil {
		return nil, &models.MalformedResponseError{Snippet: models.Snippet(html, 100), Reason: fmt.Sprintf("render body: %v", err)}
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = strings.TrimSpace(html)
	}

	fragment := map[string]any{"content_html": body}

	h1 := strings.TrimSpace(doc.Find("h1").First().Text())
	if h1 != "" {
		fragment["h1"] = h1
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = h1
	}
	if title != "" {
		fragment["article_title"] = title
	}

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(desc) != "" {
		fragment["meta_description"] = strings.TrimSpace(desc)
	}

	image, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if validImageURL(image) == "" {
		image, _ = doc.Find("img[src]").First().Attr("src")
	}
	if u := validImageURL(image); u != "" {
		fragment["featured_image"] = u
	}
	return fragment, nil
}
