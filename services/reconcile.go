package services

import "content-hand/models"

// Reconcile führt einen frisch geladenen Remote-Stand in die lokale Sammlung zusammen.
// Lokale Einträge bleiben erhalten, Remote-Einträge überschreiben per ID (last fetch wins).
// Es wird nie etwas gelöscht; local wird nicht verändert.
func Reconcile(local map[string]models.ContentTopic, remote []map[string]any, n *Normalizer) map[string]models.ContentTopic {
	out := make(map[string]models.ContentTopic, len(local)+len(remote))
	for id, t := range local {
		out[id] = t
	}
	for _, raw := range remote {
		t := n.Normalize(raw)
		out[t.ID] = t
	}
	return out
}
