package vto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest marks a request rejected locally before any network call.
var ErrInvalidRequest = errors.New("vto: invalid request")

// validationError mirrors one entry of a structured validation error body:
// {"detail": [{"loc": ["clothes"], "msg": "too short", "type": "..."}]}.
type validationError struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

// normalizeErrorBody turns a non-success response body into one human-readable
// message. Structured validation-error lists become "field path: message"
// joined with "; ", a single string reason is used verbatim, and anything
// unparseable falls back to "<status code> <status text>".
func normalizeErrorBody(statusCode int, statusText string, body []byte) string {
	fallback := fmt.Sprintf("%d %s", statusCode, strings.TrimSpace(statusText))

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return fallback
	}

	var reason string
	if err := json.Unmarshal(envelope.Detail, &reason); err == nil {
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			return trimmed
		}
		return fallback
	}

	var validationErrors []validationError
	if err := json.Unmarshal(envelope.Detail, &validationErrors); err != nil || len(validationErrors) == 0 {
		return fallback
	}

	messages := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		msg := strings.TrimSpace(ve.Msg)
		if msg == "" {
			continue
		}
		if path := joinFieldPath(ve.Loc); path != "" {
			messages = append(messages, path+": "+msg)
		} else {
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		return fallback
	}
	return strings.Join(messages, "; ")
}

// joinFieldPath renders a loc array (mixed strings and indices) as a dotted
// path, e.g. ["clothes", 0] -> "clothes.0".
func joinFieldPath(loc []json.RawMessage) string {
	segments := make([]string, 0, len(loc))
	for _, raw := range loc {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				segments = append(segments, s)
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			segments = append(segments, n.String())
		}
	}
	return strings.Join(segments, ".")
}
