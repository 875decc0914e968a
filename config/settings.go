package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Webhooks bündelt die Endpunkte der Automations-Workflows.
type Webhooks struct {
	Generation string `yaml:"generation" json:"generation"`
	Content    string `yaml:"content" json:"content"`
	Feedback   string `yaml:"feedback" json:"feedback"`
	Social     string `yaml:"social" json:"social"`
	LegacySync string `yaml:"legacy_sync" json:"legacySync"`
}

// withDefaults füllt leere Felder mit den Werten aus der Umgebung.
func (w Webhooks) withDefaults(def Webhooks) Webhooks {
	if w.Generation == "" {
		w.Generation = def.Generation
	}
	if w.Content == "" {
		w.Content = def.Content
	}
	if w.Feedback == "" {
		w.Feedback = def.Feedback
	}
	if w.Social == "" {
		w.Social = def.Social
	}
	if w.LegacySync == "" {
		w.LegacySync = def.LegacySync
	}
	return w
}

// Settings sind die vom Benutzer änderbaren Einstellungen, die lokal persistiert werden.
type Settings struct {
	Webhooks          Webhooks `yaml:"webhooks" json:"webhooks"`
	Theme             string   `yaml:"theme" json:"theme"`
	PreferredAngles   []string `yaml:"preferred_angles" json:"preferredAngles"`
	UnpreferredAngles []string `yaml:"unpreferred_angles" json:"unpreferredAngles"`
}

// WebhookDefaults liefert die Webhook-URLs aus der Env-Konfiguration.
func (c *Config) WebhookDefaults() Webhooks {
	return Webhooks{
		Generation: c.GenerationWebhookURL,
		Content:    c.ContentWebhookURL,
		Feedback:   c.FeedbackWebhookURL,
		Social:     c.SocialWebhookURL,
		LegacySync: c.LegacySyncWebhookURL,
	}
}

// SettingsStore hält die Settings im Speicher und schreibt jede Änderung als YAML zurück.
type SettingsStore struct {
	path     string
	defaults Webhooks

	mu       sync.Mutex
	settings Settings
}

// LoadSettings liest die Settings-Datei. Eine fehlende Datei ist kein Fehler.
func LoadSettings(path string, defaults Webhooks) (*SettingsStore, error) {
	s := &SettingsStore{path: path, defaults: defaults}
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &s.settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
		}
	}
	if s.settings.Theme == "" {
		s.settings.Theme = "light"
	}
	return s, nil
}

// Snapshot gibt eine Kopie der aktuellen Settings zurück.
func (s *SettingsStore) Snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	out.Webhooks = out.Webhooks.withDefaults(s.defaults)
	out.PreferredAngles = append([]string{}, s.settings.PreferredAngles...)
	out.UnpreferredAngles = append([]string{}, s.settings.UnpreferredAngles...)
	return out
}

// Update wendet fn an und speichert das Ergebnis.
func (s *SettingsStore) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	next := s.settings
	next.PreferredAngles = append([]string{}, s.settings.PreferredAngles...)
	next.UnpreferredAngles = append([]string{}, s.settings.UnpreferredAngles...)
	fn(&next)
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	s.settings = next
	s.mu.Unlock()
	return s.Snapshot(), nil
}

func (s *SettingsStore) write(settings Settings) error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", s.path, err)
	}
	return nil
}

// AddAngle hängt angle an, sofern er noch nicht enthalten ist.
func AddAngle(list []string, angle string) []string {
	angle = strings.TrimSpace(angle)
	if angle == "" {
		return list
	}
	for _, existing := range list {
		if existing == angle {
			return list
		}
	}
	return append(list, angle)
}

// RemoveAngle entfernt angle und behält die Reihenfolge der übrigen Einträge.
func RemoveAngle(list []string, angle string) []string {
	angle = strings.TrimSpace(angle)
	out := list[:0:0]
	for _, existing := range list {
		if existing != angle {
			out = append(out, existing)
		}
	}
	return out
}
