package audit

import "time"

// Category classifies audit events for retention and routing.
type Category string

const (
	// CategorySecurity feeds monitoring: auth failures, bypass attempts.
	CategorySecurity Category = "security"
	// CategoryOperations covers routine lifecycle events.
	CategoryOperations Category = "operations"
)

// Action names the audited operation.
type Action string

const (
	ActionUserRegistered      Action = "user_registered"
	ActionLoginSucceeded      Action = "login_succeeded"
	ActionAuthFailed          Action = "auth_failed"
	ActionSessionDestroyed    Action = "session_destroyed"
	ActionAdminElevated       Action = "admin_elevated"
	ActionDevBypassUsed       Action = "dev_bypass_used"
	ActionDevBypassBlocked    Action = "dev_bypass_blocked"
	ActionRegistrationCreated Action = "registration_created"
)

// Event is emitted from domain logic to capture key actions. Identifier
// values placed in Detail must already be masked; raw credentials never
// reach a sink.
type Event struct {
	Category  Category  `json:"category"`
	Action    Action    `json:"action"`
	UserID    int64     `json:"user_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
