package streamclient

import (
	"errors"
	"strings"

	"github.com/yungbote/regdraft-backend/internal/modules/generation"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateError      State = "error"
	StateCancelled  State = "cancelled"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateCancelled
}

type inputKind int

const (
	inputStart inputKind = iota
	inputConnected
	inputEvent
	inputTransportError
	inputEOF
	inputCancel
)

type input struct {
	kind  inputKind
	event generation.Event
	err   error
}

// Snapshot is the consumer's view of a run at one point in time.
type Snapshot struct {
	State           State
	Percent         int
	Message         string
	Text            string
	ComplianceScore *int
	Compliant       *bool
	SubmissionID    string
	Err             error
}

// machine holds the FSM. It is not safe for concurrent use; Consumer
// serializes every input through one queue.
type machine struct {
	state   State
	percent int
	message string
	text    strings.Builder
	score   *int
	ok      *bool
	subID   string
	err     error
}

func newMachine() *machine { return &machine{state: StateIdle} }

// apply advances the FSM and reports whether the input was accepted.
// Inputs arriving in a terminal state are dropped.
func (m *machine) apply(in input) bool {
	if m.state.Terminal() {
		return false
	}
	switch in.kind {
	case inputStart:
		if m.state != StateIdle {
			return false
		}
		m.state = StateConnecting
	case inputConnected:
		if m.state != StateConnecting {
			return false
		}
		m.state = StateRunning
	case inputEvent:
		if m.state != StateRunning {
			return false
		}
		m.applyEvent(in.event)
	case inputTransportError:
		if m.state != StateConnecting && m.state != StateRunning {
			return false
		}
		m.state = StateError
		m.err = in.err
	case inputEOF:
		if m.state != StateConnecting && m.state != StateRunning {
			return false
		}
		m.state = StateError
		m.err = ErrUnexpectedEOF
	case inputCancel:
		if m.state != StateConnecting && m.state != StateRunning {
			return false
		}
		m.state = StateCancelled
	}
	return true
}

func (m *machine) applyEvent(ev generation.Event) {
	switch ev.Type {
	case generation.EventStarted:
		m.message = ev.Message
	case generation.EventProgress:
		if ev.Percent > m.percent {
			m.percent = ev.Percent
		}
		m.message = ev.Message
	case generation.EventChunk:
		m.text.WriteString(ev.Text)
	case generation.EventCompleted:
		m.state = StateCompleted
		m.percent = 100
		m.message = ev.Message
		m.score = ev.ComplianceScore
		m.ok = ev.Compliant
		m.subID = ev.SubmissionID
	case generation.EventError:
		m.state = StateError
		m.message = ev.Message
		m.err = errors.New(ev.Message)
	}
}

func (m *machine) snapshot() Snapshot {
	return Snapshot{
		State:           m.state,
		Percent:         m.percent,
		Message:         m.message,
		Text:            m.text.String(),
		ComplianceScore: m.score,
		Compliant:       m.ok,
		SubmissionID:    m.subID,
		Err:             m.err,
	}
}
