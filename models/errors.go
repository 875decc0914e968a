package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse: aus einer Antwort ließ sich kein verwertbarer Wert gewinnen.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrRemoteUnavailable: Netzwerk- oder Store-Fehler.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrPermissionDenied: der Remote-Store hat die Anfrage per Policy abgelehnt.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTopicNotFound: unbekannte Topic-ID.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrInvalidInput: ungültige Eingabe des Benutzers (Status, Theme, Angle-Liste).
	ErrInvalidInput = errors.New("invalid input")
)

// MalformedResponseError trägt einen Ausschnitt der bereinigten Antwort für die Diagnose.
type MalformedResponseError struct {
	Snippet string
	Reason  string
}

func (e *MalformedResponseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed response (%s): %q", e.Reason, e.Snippet)
	}
	return fmt.Sprintf("malformed response: %q", e.Snippet)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// RemoteError beschreibt einen fehlgeschlagenen Aufruf eines externen Systems.
// Denied markiert Policy-Ablehnungen ohne HTTP-Status (z.B. Postgres 42501).
type RemoteError struct {
	Target     string
	StatusCode int
	Denied     bool
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Target, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.denied()
	case ErrRemoteUnavailable:
		return !e.denied()
	}
	return false
}

func (e *RemoteError) denied() bool {
	return e.Denied || e.StatusCode == 401 || e.StatusCode == 403
}

// Snippet kürzt s auf höchstens n Zeichen.
func Snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
