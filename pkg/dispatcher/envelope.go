// Package dispatcher routes named tasks to the agent that claims them.
package dispatcher

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/morezero/agent-orchestrator/pkg/commsutil"
	"github.com/morezero/agent-orchestrator/pkg/registry"
)

// CodeInvalidRequest marks a request envelope that could not be decoded.
const CodeInvalidRequest = "INVALID_REQUEST"

// TaskRequest is a decoded task submission.
type TaskRequest struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

// TaskResponse is the JSON envelope returned on the COMMS task subject.
type TaskResponse struct {
	ID    string         `json:"id,omitempty"`
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data"`
	Error string         `json:"error,omitempty"`
	Code  string         `json:"code,omitempty"`
}

type wireTaskRequest struct {
	ID      string          `json:"id"`
	Name    json.RawMessage `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// ParseTaskRequest decodes a task submission. The name must be a JSON string
// and the payload, when present, a JSON object. An absent name decodes as
// empty and is rejected later by PostTask.
func ParseTaskRequest(data []byte) (*TaskRequest, error) {
	var wire wireTaskRequest
	if err := commsutil.DecodePayload(data, &wire); err != nil {
		return nil, invalidRequest("body is not a JSON object: %v", err)
	}

	req := &TaskRequest{ID: wire.ID}
	if len(wire.Name) > 0 {
		if err := json.Unmarshal(wire.Name, &req.Name); err != nil {
			return nil, invalidRequest("name must be a string")
		}
	}

	payload, err := ParsePayload(wire.Payload)
	if err != nil {
		return nil, err
	}
	req.Payload = payload
	return req, nil
}

// ParsePayload decodes a task payload. Absent means empty; null and
// non-object values are rejected.
func ParsePayload(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}
	if trimmed[0] != '{' {
		return nil, invalidRequest("payload must be a JSON object")
	}
	var payload map[string]any
	if err := commsutil.DecodePayload(trimmed, &payload); err != nil {
		return nil, invalidRequest("payload must be a JSON object: %v", err)
	}
	return payload, nil
}

func invalidRequest(format string, args ...any) *registry.RegistryError {
	return registry.NewRegistryError(CodeInvalidRequest, fmt.Sprintf(format, args...))
}
