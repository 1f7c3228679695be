package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Action names an auditable change to an account or its session.
type Action string

const (
	ActionAccountCreated   Action = "account.created"
	ActionAccountDeleted   Action = "account.deleted"
	ActionIdentityLinked   Action = "identity.linked"
	ActionIdentityConflict Action = "identity.conflict"
	ActionSessionRevoked   Action = "session.revoked"
)

// Event represents an audit log event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Subject   string    `json:"subject,omitempty"`    // account email
	AccountID string    `json:"account_id,omitempty"` // account id, when known
	Provider  string    `json:"provider,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

var (
	mu          sync.RWMutex
	auditLogger = zerolog.New(os.Stdout)
)

// SetOutput redirects audit events, e.g. to a dedicated file.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	auditLogger = zerolog.New(w)
}

// Log records an audit event. A zero Timestamp is set to now.
func Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	entry, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("action", string(event.Action)).Msg("Failed to marshal audit event to JSON")
		return
	}

	mu.RLock()
	defer mu.RUnlock()
	auditLogger.Log().RawJSON("audit_event", entry).Msg("")
}

// Failure records an action that was refused.
func Failure(action Action, subject, provider string, err error) {
	event := Event{
		Action:   action,
		Subject:  subject,
		Provider: provider,
	}
	if err != nil {
		event.Error = err.Error()
	}
	Log(event)
}
