// Package events defines dispatch event types and publishers.
package events

// TaskDispatchedEvent is emitted after a task reached an agent and its result was audited.
type TaskDispatchedEvent struct {
	ID        string `json:"id"`
	Agent     string `json:"agent"`
	Task      string `json:"task"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}
