package providers

import "context"

// Source ist das Interface, das jede Sync-Quelle (Remote-Store, Legacy-Webhook) implementieren muss.
type Source interface {
	// FetchAll liefert alle Datensätze der Quelle in roher Form; die Normalisierung macht der Aufrufer.
	FetchAll(ctx context.Context) ([]map[string]any, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "rest-store").
	Name() string
}
