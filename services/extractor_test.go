package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"content-hand/models"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want any
	}{
		{
			name: "fenced with prose",
			raw:  "Here is your result:\n```json\n{\"topics\":[{\"title\":\"A\"}]}\n```",
			want: map[string]any{"topics": []any{map[string]any{"title": "A"}}},
		},
		{
			name: "fence without language tag",
			raw:  "```\n[1, 2]\n```",
			want: []any{float64(1), float64(2)},
		},
		{
			name: "trailing log noise",
			raw:  `{"ok": true} -- execution finished in 3s`,
			want: map[string]any{"ok": true},
		},
		{
			name: "raw newline inside string",
			raw:  "{\"text\": \"line one\nline two\"}",
			want: map[string]any{"text": "line one\nline two"},
		},
		{
			name: "missing comma between lines",
			raw:  "{\n\"a\": \"x\"\n\"b\": \"y\"\n}",
			want: map[string]any{"a": "x", "b": "y"},
		},
		{
			name: "plain array",
			raw:  `  [{"id":"1"}]  `,
			want: []any{map[string]any{"id": "1"}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractJSON() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtractJSONMalformed(t *testing.T) {
	t.Parallel()

	raw := "The workflow failed: {broken " + strings.Repeat("x", 200)
	_, err := ExtractJSON(raw)
	if err == nil {
		t.Fatal("ExtractJSON() expected error")
	}
	if !errors.Is(err, models.ErrMalformedResponse) {
		t.Fatalf("ExtractJSON() error = %v, want ErrMalformedResponse", err)
	}
	var mre *models.MalformedResponseError
	if !errors.As(err, &mre) {
		t.Fatalf("ExtractJSON() error type = %T", err)
	}
	if n := len([]rune(mre.Snippet)); n > 100 {
		t.Errorf("snippet length = %d, want <= 100", n)
	}
	if !strings.HasPrefix(mre.Snippet, "The workflow failed") {
		t.Errorf("snippet = %q", mre.Snippet)
	}
}
