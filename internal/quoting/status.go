package quoting

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Terminal reports whether the client has already responded.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRefused
}

// Action is what a caller asks to do with a quote.
type Action string

const (
	// ActionValidate is the admin sending a draft to the client.
	ActionValidate Action = "validate"
	// ActionAccept comes from the admin API or the client's email link.
	ActionAccept Action = "accept"
	// ActionDecline is the client refusing through the public link.
	ActionDecline Action = "decline"
	// ActionRefuse is the admin closing a quote as refused.
	ActionRefuse Action = "refuse"
)

var (
	// ErrAlreadyResponded is a no-op signal: the quote is accepted or refused
	// and the caller should report the current status. Validate never gets it.
	ErrAlreadyResponded = errors.New("quote already responded")
	ErrAlreadySent      = errors.New("quote already sent")
	ErrNotSent          = errors.New("quote has not been sent")
	ErrUnknownAction    = errors.New("unknown quote action")
)

// transitions lists, per action, the statuses it may start from and where it
// leads.
var transitions = map[Action]struct {
	from []Status
	to   Status
}{
	ActionValidate: {from: []Status{StatusDraft}, to: StatusSent},
	ActionAccept:   {from: []Status{StatusSent}, to: StatusAccepted},
	ActionDecline:  {from: []Status{StatusSent}, to: StatusRefused},
	ActionRefuse:   {from: []Status{StatusDraft, StatusSent}, to: StatusRefused},
}

// Transition returns the status reached by applying action to from.
func Transition(from Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return from, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	if action == ActionValidate && from != StatusDraft {
		return from, fmt.Errorf("%w: quote is %s", ErrAlreadySent, from)
	}
	if from.Terminal() {
		return from, ErrAlreadyResponded
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return from, fmt.Errorf("%w: cannot %s a %s quote", ErrNotSent, action, from)
}

// AllowedFrom lists the statuses action may start from. Persistence uses it
// as the guard of a conditional update.
func AllowedFrom(action Action) []Status {
	t, ok := transitions[action]
	if !ok {
		return nil
	}
	out := make([]Status, len(t.from))
	copy(out, t.from)
	return out
}

// ResponseAction maps a client "respond" payload to an action.
func ResponseAction(response string) (Action, error) {
	switch Status(response) {
	case StatusAccepted:
		return ActionAccept, nil
	case StatusRefused:
		return ActionDecline, nil
	}
	return "", fmt.Errorf("response must be %q or %q", StatusAccepted, StatusRefused)
}
