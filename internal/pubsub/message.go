// Package pubsub describes inbound publish/subscribe deliveries and decodes
// their payload into a signup event.
package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yourusername/verification-mailer/internal/domain/entity"
	apperrors "github.com/yourusername/verification-mailer/internal/pkg/errors"
)

// Message is a single Pub/Sub message. Data stays base64-encoded until
// DecodeSignupEvent so that a bad payload is reported as a malformed event.
type Message struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime string            `json:"publishTime,omitempty"`
}

// PushEnvelope is the body of a Pub/Sub push delivery.
type PushEnvelope struct {
	Message      Message `json:"message"`
	Subscription string  `json:"subscription"`
}

// MessageHandler processes one delivery.
type MessageHandler func(ctx context.Context, msg *Message) error

// MalformedEventError reports a payload that could not be decoded.
type MalformedEventError struct {
	Stage string
	Err   error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed signup event (%s): %v", e.Stage, e.Err)
}

func (e *MalformedEventError) Unwrap() error { return e.Err }

func (e *MalformedEventError) Is(target error) bool {
	return target == apperrors.ErrMalformedEvent
}

// DecodeSignupEvent decodes base64 UTF-8 JSON into a SignupEvent.
// The standard alphabet is tried first, then the URL-safe one.
func DecodeSignupEvent(data string) (*entity.SignupEvent, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		var urlErr error
		raw, urlErr = base64.URLEncoding.DecodeString(data)
		if urlErr != nil {
			return nil, &MalformedEventError{Stage: "base64", Err: errors.Join(
				fmt.Errorf("std alphabet: %w", err),
				fmt.Errorf("url alphabet: %w", urlErr),
			)}
		}
	}

	if !utf8.Valid(raw) {
		return nil, &MalformedEventError{Stage: "utf-8", Err: fmt.Errorf("payload is not valid UTF-8")}
	}

	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil, &MalformedEventError{Stage: "json", Err: fmt.Errorf("payload is not a JSON object")}
	}

	var event entity.SignupEvent
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return nil, &MalformedEventError{Stage: "json", Err: err}
	}
	return &event, nil
}

// EncodeSignupEvent is the inverse of DecodeSignupEvent.
func EncodeSignupEvent(event *entity.SignupEvent) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signup event: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// ParsePayload turns a raw transport payload into a Message. A JSON object is
// read as a Pub/Sub message; anything else is taken as the base64 data itself.
func ParsePayload(payload []byte) (*Message, error) {
	trimmed := bytes.TrimSpace(payload)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var msg Message
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse message: %w", err)
		}
		return &msg, nil
	}
	return &Message{Data: string(trimmed)}, nil
}
