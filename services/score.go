package services

import (
	"encoding/json"
	"regexp"
	"strconv"
)

var scoreNumberRE = regexp.MustCompile(`-?\d*\.?\d+`)

// ParseScore liest die erste Dezimalzahl aus einem Wert ("8/10" → 8, "Score: 7.5" → 7.5).
// Nicht lesbare Werte ergeben 0.
func ParseScore(v any) float64 {
	f, _ := parseScore(v)
	return f
}

func parseScore(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		m := scoreNumberRE.FindString(t)
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	}
	return 0, false
}
