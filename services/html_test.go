package services

import "testing"

func TestLooksLikeHTML(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"  <p>x</p>":      true,
		"<!DOCTYPE html>": true,
		`{"a":1}`:         false,
		"plain text":      false,
	}
	for in, want := range tests {
		if got := looksLikeHTML(in); got != want {
			t.Errorf("looksLikeHTML(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHTMLFragmentOpenGraphImage(t *testing.T) {
	t.Parallel()

	page := `<html><head><meta property="og:image" content="https://img.example/og.png"></head>` +
		`<body><p>Body</p><img src="https://img.example/inline.png"></body></html>`
	fragment, err := HTMLFragment(page)
	if err != nil {
		t.Fatalf("HTMLFragment() error = %v", err)
	}
	if fragment["featured_image"] != "https://img.example/og.png" {
		t.Errorf("featured_image = %v, want og image", fragment["featured_image"])
	}
	if _, ok := fragment["article_title"]; ok {
		t.Errorf("article_title = %v, want unset without title or h1", fragment["article_title"])
	}
}

func TestHTMLFragmentRejectsRelativeImage(t *testing.T) {
	t.Parallel()

	fragment, err := HTMLFragment(`<h1>Title</h1><img src="/local.png">`)
	if err != nil {
		t.Fatalf("HTMLFragment() error = %v", err)
	}
	if _, ok := fragment["featured_image"]; ok {
		t.Errorf("featured_image = %v, want unset", fragment["featured_image"])
	}
	if fragment["h1"] != "Title" || fragment["article_title"] != "Title" {
		t.Errorf("fragment = %v", fragment)
	}
}
