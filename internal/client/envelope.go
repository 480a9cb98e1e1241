package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Envelope kind values returned by the backend for every call.
const (
	EnvelopeSuccess = "success"
	EnvelopeError   = "error"
	EnvelopeWarning = "warning"
	EnvelopeInfo    = "info"
)

var ErrInvalidEnvelope = errors.New("client: invalid response envelope")

// Envelope is the wire-level response shape shared by every backend call.
type Envelope struct {
	Kind       string          `json:"kind"`
	Message    MessageList     `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
	Diagnostic *Diagnostic     `json:"diagnostic,omitempty"`
}

func (e *Envelope) Validate() error {
	switch e.Kind {
	case EnvelopeSuccess, EnvelopeError, EnvelopeWarning, EnvelopeInfo:
		return nil
	}
	return fmt.Errorf("%w: unknown kind %q", ErrInvalidEnvelope, e.Kind)
}

// MessageList normalizes the backend's string-or-list message field so
// every consumer handles one shape.
type MessageList []string

func (m *MessageList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*m = MessageList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = MessageList(many)
	return nil
}

// Join renders the message(s) as one readable string.
func (m MessageList) Join(sep string) string {
	return strings.Join(m, sep)
}

// Diagnostic is the backend's free-form (component, detail) pair. It is
// surfaced to logs, never parsed beyond splitting the tuple.
type Diagnostic struct {
	Component string
	Detail    string
}

// UnmarshalJSON accepts the wire tuple form ["component", "detail", ...].
// Elements past the first are folded into the detail.
func (d *Diagnostic) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) > 0 {
		d.Component = parts[0]
	}
	if len(parts) > 1 {
		d.Detail = strings.Join(parts[1:], " ")
	}
	return nil
}
