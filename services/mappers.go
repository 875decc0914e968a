package services

import (
	"fmt"

	"content-hand/models"
)

// Container-Schlüssel, unter denen Webhooks ihre Datensatz-Listen ablegen.
var collectionKeys = []string{"topics", "results", "data"}

// Schlüssel, unter denen der Content-Webhook den HTML-Body irgendwo in der Antwort ablegt.
var htmlBodyKeys = []string{"content_html", "html", "html_content", "article_html", "body_html"}

// rawHTML markiert einen body, der kein JSON, sondern HTML ist.
type rawHTML string

// MapTopicsResponse liest die Antwort des Ideen-Webhooks als Liste roher Topic-Datensätze.
func MapTopicsResponse(body string) ([]map[string]any, error) {
	v, err := decodeResponse(body)
	if err != nil {
		return nil, err
	}
	return collection(v, body)
}

// MapSyncResponse liest die Antwort des Legacy-Sync-Webhooks. Store-Zeilen der Form
// {id, data} werden dabei ausgepackt.
func MapSyncResponse(body string) ([]map[string]any, error) {
	v, err := decodeResponse(body)
	if err != nil {
		return nil, err
	}
	recs, err := collection(v, body)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		recs[i] = models.RecordFromRow(rec)
	}
	return recs, nil
}

// MapContentResponse liest die Antwort des Content-Webhooks als ein Fragment für Normalizer.Merge.
// HTML-Body, SEO- und Validator-Container werden in beliebiger Tiefe gesucht und nach oben gehoben.
func MapContentResponse(body string) (map[string]any, error) {
	if looksLikeHTML(body) {
		return HTMLFragment(body)
	}
	v, err := decodeResponse(body)
	if err != nil {
		return nil, err
	}
	if html, ok := v.(rawHTML); ok {
		return HTMLFragment(string(html))
	}

	recs, err := collection(v, body)
	if err != nil {
		return nil, err
	}
	fragment := map[string]any{}
	if len(recs) > 0 {
		for k, val := range recs[0] {
			fragment[k] = val
		}
	}

	if _, ok := firstFlat(fragment, htmlBodyKeys...); !ok {
		if html := GetString(v, htmlBodyKeys...); html != "" {
			fragment["content_html"] = html
		}
	}
	if flatObject(fragment, seoContainerKeys...) == nil {
		if seo := GetObject(v, seoContainerKeys...); seo != nil {
			fragment["seo"] = seo
		}
	}
	if flatObject(fragment, validatorContainerKeys...) == nil {
		if validator := GetObject(v, validatorContainerKeys...); validator != nil {
			fragment["validatorData"] = validator
		}
	}

	if len(fragment) == 0 {
		return nil, &models.MalformedResponseError{Snippet: models.Snippet(body, 100), Reason: "no content record"}
	}
	return fragment, nil
}

// decodeResponse extrahiert den JSON-Wert und packt eine Ebene [{body}] und eine Ebene {body} aus.
// Ein body mit reinem Text bleibt ein Feld des Datensatzes.
func decodeResponse(body string) (any, error) {
	v, err := ExtractJSON(body)
	if err != nil {
		return nil, err
	}

	if arr, ok := v.([]any); ok && len(arr) == 1 {
		if obj, ok := arr[0].(map[string]any); ok {
			if inner, ok := unwrapBody(obj); ok {
				v = inner
			}
		}
	}
	if obj, ok := v.(map[string]any); ok {
		if inner, ok := unwrapBody(obj); ok {
			v = inner
		}
	}
	return v, nil
}

// unwrapBody liefert den Inhalt von body, wenn er Objekt, Array, HTML oder ein String mit
// eingebettetem Objekt bzw. Array ist.
func unwrapBody(obj map[string]any) (any, bool) {
	inner, ok := firstFlat(obj, "body")
	if !ok {
		return nil, false
	}
	switch t := inner.(type) {
	case map[string]any, []any:
		return t, true
	case string:
		if looksLikeHTML(t) {
			return rawHTML(t), true
		}
		v, err := ExtractJSON(t)
		if err != nil {
			return nil, false
		}
		switch v.(type) {
		case map[string]any, []any:
			return v, true
		}
	}
	return nil, false
}

// collection macht aus Array oder Objekt eine Liste von Datensätzen.
func collection(v any, body string) ([]map[string]any, error) {
	switch t := v.(type) {
	case []any:
		return records(t), nil
	case map[string]any:
		for _, key := range collectionKeys {
			if found, ok := firstFlat(t, key); ok {
				if list, ok := found.([]any); ok {
					return records(list), nil
				}
			}
		}
		return []map[string]any{t}, nil
	}
	return nil, &models.MalformedResponseError{
		Snippet: models.Snippet(body, 100),
		Reason:  fmt.Sprintf("unexpected top-level %T", v),
	}
}

// records übernimmt nur Objekte; Strings mit eingebettetem JSON-Objekt werden geparst.
func records(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj := asObject(item); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}
