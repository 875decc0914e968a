package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"content-hand/models"
)

var (
	fenceStartRE    = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceEndRE      = regexp.MustCompile("\\s*```\\s*$")
	adjacentLinesRE = regexp.MustCompile(`"([ \t\r]*\n\s*)"`)
)

// ExtractJSON holt den JSON-Wert aus einer Antwort, die von Prosa oder Code-Fences umgeben sein
// oder kleinere Syntaxfehler enthalten kann. Objekte kommen als map[string]any, Arrays als []any.
func ExtractJSON(raw string) (any, error) {
	cleaned := sliceJSONSpan(strings.TrimSpace(raw))
	cleaned = stripCodeFences(cleaned)

	if v, err := decodeStrict(cleaned); err == nil {
		return v, nil
	}

	repaired := repairJSON(cleaned)
	v, err := decodeStrict(repaired)
	if err != nil {
		return nil, &models.MalformedResponseError{Snippet: models.Snippet(cleaned, 100), Reason: err.Error()}
	}
	return v, nil
}

// sliceJSONSpan schneidet auf den Bereich zwischen erster öffnender und letzter schließender Klammer.
func sliceJSONSpan(s string) string {
	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func stripCodeFences(s string) string {
	s = fenceStartRE.ReplaceAllString(s, "")
	s = fenceEndRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func decodeStrict(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// repairJSON ist der einzige Reparaturversuch: rohe Zeilenumbrüche innerhalb von Strings werden
// escaped, und zwischen zwei aufeinanderfolgenden String-Zeilen ohne Trenner kommt ein Komma.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			}
		} else if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}

	return adjacentLinesRE.ReplaceAllString(b.String(), `",$1"`)
}
