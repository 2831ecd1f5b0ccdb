// Package protocol defines the JSON wire format shared by the matchmaking
// and game services: the socket frame envelopes, the request/response unions
// carried inside them, and the HTTP bodies of the control-plane endpoints.
//
// Unions are discriminated by a "type" field holding the variant name; all
// other fields are camelCase.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rpsarena/backend/internal/model"
)

// Response is any server→client message variant.
type Response interface {
	ResponseType() string
}

// SocketRequest is the client→server frame envelope. Body carries one
// type-tagged request variant.
type SocketRequest struct {
	UserID *model.ID       `json:"userId,omitempty"`
	Body   json.RawMessage `json:"body"`
}

// socketResponse is the server→client frame envelope. The variant name is
// hoisted into the envelope's own "type" field; Body holds the variant's
// remaining fields.
type socketResponse struct {
	Type   string          `json:"type"`
	UserID model.ID        `json:"userId"`
	Body   json.RawMessage `json:"body"`
}

// Identify is the mandatory first client frame on any socket.
type Identify struct {
	UserID model.ID `json:"userId"`
}

// DecodeIdentify parses an identify frame. A frame without a userId field is
// rejected even if it is otherwise valid JSON.
func DecodeIdentify(data []byte) (model.ID, error) {
	var raw struct {
		UserID *model.ID `json:"userId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.NilID, err
	}
	if raw.UserID == nil {
		return model.NilID, fmt.Errorf("identify frame missing userId")
	}
	return *raw.UserID, nil
}

// EncodeIdentify builds the identify frame. Client side.
func EncodeIdentify(userID model.ID) ([]byte, error) {
	return json.Marshal(Identify{UserID: userID})
}

// EncodeResponse builds a server→client frame for the given variant.
func EncodeResponse(userID model.ID, body Response) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", body.ResponseType(), err)
	}
	return json.Marshal(socketResponse{
		Type:   body.ResponseType(),
		UserID: userID,
		Body:   payload,
	})
}

// tagged marshals v and splices the variant name into its "type" field.
// Used for request bodies, where the tag lives inline with the fields.
func tagged(typ string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// variantTag extracts the "type" discriminator from a union body.
func variantTag(data []byte) (string, error) {
	var raw struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	if raw.Type == "" {
		return "", fmt.Errorf("missing type discriminator")
	}
	return raw.Type, nil
}
