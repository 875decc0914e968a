package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// TopicRow ist die Zeile im Remote-Store: ID plus opaker JSON-Blob.
type TopicRow struct {
	ID        string         `json:"id" gorm:"primaryKey;size:64"`
	Data      datatypes.JSON `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (TopicRow) TableName() string {
	return "content_topics"
}

// RecordFromRow macht aus einer Store-Zeile {id, data, created_at} den gespeicherten Datensatz.
// Zeilen ohne data-Objekt werden unverändert durchgereicht.
func RecordFromRow(row map[string]any) map[string]any {
	var data map[string]any
	switch t := row["data"].(type) {
	case map[string]any:
		data = t
	case string:
		if err := json.Unmarshal([]byte(t), &data); err != nil {
			return row
		}
	default:
		return row
	}
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	if _, ok := out["id"]; !ok && row["id"] != nil {
		out["id"] = row["id"]
	}
	if _, ok := out["createdAt"]; !ok && row["created_at"] != nil {
		out["createdAt"] = row["created_at"]
	}
	return out
}
