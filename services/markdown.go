package services

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"content-hand/models"
)

var markdownConverter = md.NewConverter("", true, nil)

// TopicMarkdown rendert den generierten Content eines Topics als Markdown-Dokument.
func TopicMarkdown(t models.ContentTopic) (string, error) {
	gc := t.GeneratedContent
	if gc.IsEmpty() {
		return "", fmt.Errorf("topic %s has no generated content", t.ID)
	}

	var b strings.Builder
	title := gc.H1
	if title == "" {
		title = gc.Title
	}
	if title == "" {
		title = t.Title
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if gc.MetaDescription != "" {
		fmt.Fprintf(&b, "> %s\n\n", gc.MetaDescription)
	}
	if gc.FeaturedImage != "" && !strings.HasPrefix(gc.FeaturedImage, "data:") {
		fmt.Fprintf(&b, "![%s](%s)\n\n", title, gc.FeaturedImage)
	}

	switch {
	case gc.ContentHTML != "":
		body, err := markdownConverter.ConvertString(gc.ContentHTML)
		if err != nil {
			return "", fmt.Errorf("converting HTML to markdown: %w", err)
		}
		b.WriteString(strings.TrimSpace(body))
		b.WriteString("\n")
	case len(gc.Sections) > 0:
		for _, s := range gc.Sections {
			if s.Heading != "" {
				fmt.Fprintf(&b, "## %s\n\n", s.Heading)
			}
			if s.Content != "" {
				content, err := markdownConverter.ConvertString(s.Content)
				if err != nil {
					return "", fmt.Errorf("converting section to markdown: %w", err)
				}
				fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(content))
			}
		}
	}

	if len(gc.FAQ) > 0 {
		b.WriteString("\n## FAQ\n\n")
		for _, f := range gc.FAQ {
			fmt.Fprintf(&b, "**%s**\n\n%s\n\n", f.Question, f.Answer)
		}
	}
	if len(gc.Hashtags) > 0 {
		fmt.Fprintf(&b, "\n%s\n", strings.Join(gc.Hashtags, " "))
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}
