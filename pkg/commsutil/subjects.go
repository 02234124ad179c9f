package commsutil

import "strings"

// Default COMMS subjects.
const (
	SubjectTasks      = "orchestrator.tasks.v1"
	SubjectDispatched = "orchestrator.dispatched"
)

// BuildDispatchedSubject builds the per-agent dispatch event subject.
// Characters NATS treats as token separators or wildcards are replaced with "_".
func BuildDispatchedSubject(agentName string) string {
	return SubjectDispatched + "." + SanitizeToken(agentName)
}

// SanitizeToken makes s safe to use as a single subject token.
func SanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
