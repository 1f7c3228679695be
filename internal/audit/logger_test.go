package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) Event {
	t.Helper()
	var line struct {
		Event Event `json:"audit_event"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line.Event
}

func TestLog(t *testing.T) {
	buf := capture(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	Log(Event{
		Timestamp: ts,
		Action:    ActionIdentityLinked,
		Subject:   "ada@example.com",
		AccountID: "acc-1",
		Provider:  "github",
		Success:   true,
	})

	got := decode(t, buf)
	assert.Equal(t, ActionIdentityLinked, got.Action)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.True(t, got.Success)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestLogSetsTimestamp(t *testing.T) {
	buf := capture(t)

	Log(Event{Action: ActionSessionRevoked, Subject: "ada@example.com", Success: true})

	assert.False(t, decode(t, buf).Timestamp.IsZero())
}

func TestFailure(t *testing.T) {
	buf := capture(t)

	Failure(ActionIdentityConflict, "ada@example.com", "google", errors.New("identity conflict"))

	got := decode(t, buf)
	assert.Equal(t, ActionIdentityConflict, got.Action)
	assert.False(t, got.Success)
	assert.Equal(t, "google", got.Provider)
	assert.Equal(t, "identity conflict", got.Error)
}
