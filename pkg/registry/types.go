// Package registry holds the agent registry and its routing table.
package registry

import "errors"

// Error codes returned by the registry and the dispatcher.
const (
	CodeInvalidAgent   = "INVALID_AGENT"
	CodeDuplicateAgent = "DUPLICATE_AGENT"
	CodeDuplicateRoute = "DUPLICATE_ROUTE"
	CodeInvalidTask    = "INVALID_TASK"
)

// AgentInfo is the public view of a registered agent.
type AgentInfo struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

// RouteConflict details a task name claimed by two agents.
type RouteConflict struct {
	Task     string `json:"task"`
	Owner    string `json:"owner"`
	Claimant string `json:"claimant"`
}

// RegistryError is a structured error from the registry.
type RegistryError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *RegistryError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message string) *RegistryError {
	return &RegistryError{Code: code, Message: message}
}

// IsCode reports whether err wraps a RegistryError carrying code.
func IsCode(err error, code string) bool {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
