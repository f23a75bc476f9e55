package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the success half of the normalized result.
//
// The backend is inconsistent about where it puts the interesting part of a
// reply: login answers {success, token, user}, /auth/me answers
// {success, data}, some list endpoints answer a bare array. Payload always
// holds the part callers care about.
type Envelope struct {
	Status  int
	Token   string
	Message string
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Payload) == 0 || bytes.Equal(e.Payload, []byte("null")) {
		return fmt.Errorf("response has no payload")
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// HasPayload reports whether the reply carried a non-null payload.
func (e *Envelope) HasPayload() bool {
	return len(e.Payload) > 0 && !bytes.Equal(e.Payload, []byte("null"))
}

// rawReply is the loosely-typed shape of every JSON object the backend sends.
type rawReply struct {
	Success          *bool           `json:"success"`
	Token            string          `json:"token"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	RequiresPassword bool            `json:"requiresPassword"`
	Data             json.RawMessage `json:"data"`
	User             json.RawMessage `json:"user"`
}

func parseReply(body []byte) (rawReply, bool) {
	var reply rawReply
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return reply, false
	}
	if err := json.Unmarshal(trimmed, &reply); err != nil {
		return reply, false
	}
	return reply, true
}

func (r rawReply) message() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

func (r rawReply) payload(body []byte) json.RawMessage {
	switch {
	case len(r.Data) > 0:
		return r.Data
	case len(r.User) > 0:
		return r.User
	default:
		return json.RawMessage(bytes.TrimSpace(body))
	}
}
