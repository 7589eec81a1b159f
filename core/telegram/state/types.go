package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores the current step and the accumulated scratch record for a user.
type Session struct {
	Step   State          `json:"step"`
	Fields map[string]any `json:"fields"`
}

// Manager orchestrates user sessions and FSM step transitions.
type Manager interface {
	Get(userID int64) *Session

	SetStep(userID int64, st State)
	Step(userID int64) State
	InProgress(userID int64) bool

	UpdateFields(userID int64, partial map[string]any)
	Fields(userID int64) map[string]any
	Field(userID int64, key string) (any, bool)
	FieldString(userID int64, key string) string
	FieldInt64(userID int64, key string) (int64, bool)
	ClearField(userID int64, key string)

	Clear(userID int64)

	ManagerHandler(c tele.Context) error
}
