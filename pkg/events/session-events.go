package events

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const TopicSession = "session"

// Transition names a session state change.
type Transition string

const (
	TransitionLoaded        Transition = "loaded"
	TransitionSendStarted   Transition = "send-started"
	TransitionSendCompleted Transition = "send-completed"
	TransitionSendFailed    Transition = "send-failed"
	TransitionNewChat       Transition = "new-chat"
	TransitionCleared       Transition = "cleared"
	TransitionRestored      Transition = "restored"
	TransitionHistoryRemove Transition = "history-removed"
	TransitionHistoryClear  Transition = "history-cleared"
	TransitionHistoryAdd    Transition = "history-added"
	TransitionModelChanged  Transition = "model-changed"
	TransitionProfileUpdate Transition = "profile-updated"
)

// SessionEvent summarizes the session right after a transition.
type SessionEvent struct {
	Transition   Transition `json:"transition"`
	MessageCount int        `json:"messageCount"`
	HistoryCount int        `json:"historyCount"`
	Loading      bool       `json:"loading"`
	Model        string     `json:"model,omitempty"`
	Error        string     `json:"error,omitempty"`
	Time         time.Time  `json:"time"`
}

func NewSessionEventFromJSON(b []byte) (*SessionEvent, error) {
	var ev SessionEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return nil, errors.Wrap(err, "could not decode session event")
	}
	if ev.Transition == "" {
		return nil, errors.New("session event has no transition")
	}
	return &ev, nil
}
