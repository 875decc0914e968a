package services

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxDepth begrenzt die rekursive Suche; tiefer liegende Treffer gelten als "nicht gefunden".
const DefaultMaxDepth = 12

// imageURLKeys sind die Eigenschaften, unter denen ein Bild-Objekt seine URL trägt.
var imageURLKeys = []string{"url", "src", "href", "image_url", "imageUrl", "secure_url", "link", "original", "large", "source"}

// NormalizeKey macht Schlüssel vergleichbar: Meta_Description, metaDescription und
// meta-description ergeben alle "metadescription".
func NormalizeKey(key string) string {
	key = norm.NFKC.String(key)
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindByKey sucht mit der Standard-Tiefe nach key.
func FindByKey(v any, key string) (any, bool) {
	return FindByKeyDepth(v, key, DefaultMaxDepth)
}

// FindByKeyDepth sucht in beliebig verschachtelten Werten nach einem nicht-leeren Wert unter key.
// Direkte Eigenschaften eines Objekts gewinnen vor tieferen Treffern; danach werden Array-Elemente
// in Reihenfolge und Objekt-Eigenschaften in sortierter Schlüsselreihenfolge durchsucht.
// maxDepth 0 prüft nur die direkten Eigenschaften.
func FindByKeyDepth(v any, key string, maxDepth int) (any, bool) {
	target := NormalizeKey(key)
	if target == "" {
		return nil, false
	}
	return findNormalized(v, target, 0, maxDepth)
}

func findNormalized(v any, target string, depth, maxDepth int) (any, bool) {
	if depth > maxDepth {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		keys := sortedKeys(t)
		for _, k := range keys {
			if NormalizeKey(k) == target && !isEmptyValue(t[k]) {
				return t[k], true
			}
		}
		for _, k := range keys {
			if found, ok := findNormalized(t[k], target, depth+1, maxDepth); ok {
				return found, true
			}
		}
	case []any:
		for _, item := range t {
			if found, ok := findNormalized(item, target, depth+1, maxDepth); ok {
				return found, true
			}
		}
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// GetString liefert den ersten Kandidaten-Schlüssel mit nicht-leerem String; Zahlen werden zu Strings.
func GetString(v any, keys ...string) string {
	return getStringDepth(v, DefaultMaxDepth, keys...)
}

func getStringDepth(v any, maxDepth int, keys ...string) string {
	for _, key := range keys {
		found, ok := FindByKeyDepth(v, key, maxDepth)
		if !ok {
			continue
		}
		if s, ok := scalarString(found); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// scalarString wandelt Strings, Zahlen und Bools in einen String.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// GetObject liefert das erste Objekt unter einem der Kandidaten-Schlüssel. Ein String, der selbst
// ein JSON-Objekt enthält, wird über ExtractJSON geparst.
func GetObject(v any, keys ...string) map[string]any {
	return getObjectDepth(v, DefaultMaxDepth, keys...)
}

func getObjectDepth(v any, maxDepth int, keys ...string) map[string]any {
	for _, key := range keys {
		found, ok := FindByKeyDepth(v, key, maxDepth)
		if !ok {
			continue
		}
		if obj := asObject(found); obj != nil {
			return obj
		}
	}
	return nil
}

func asObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case string:
		trimmed := strings.TrimSpace(t)
		if !strings.HasPrefix(trimmed, "{") && !strings.Contains(trimmed, "```") {
			return nil
		}
		parsed, err := ExtractJSON(trimmed)
		if err != nil {
			return nil
		}
		if obj, ok := parsed.(map[string]any); ok {
			return obj
		}
	}
	return nil
}

// ExtractImageURL akzeptiert einen String oder ein Objekt mit einer URL-Eigenschaft und gibt die URL
// nur zurück, wenn sie mit http oder data:image beginnt.
func ExtractImageURL(v any) string {
	switch t := v.(type) {
	case string:
		return validImageURL(t)
	case map[string]any:
		for _, key := range imageURLKeys {
			found, ok := FindByKeyDepth(t, key, 0)
			if !ok {
				continue
			}
			if s, ok := found.(string); ok {
				if u := validImageURL(s); u != "" {
					return u
				}
			}
		}
	case []any:
		for _, item := range t {
			if u := ExtractImageURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

func validImageURL(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http") || strings.HasPrefix(lower, "data:image") {
		return s
	}
	return ""
}
