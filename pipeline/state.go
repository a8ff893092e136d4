package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is one step of processing a single identity record
type State string

const (
	StateIdle         State = "Idle"
	StateSearching    State = "Searching"
	StateResolving    State = "Resolving"
	StateNavigated    State = "Navigated"
	StateNoMatch      State = "NoMatch"
	StateExtracting   State = "Extracting"
	StateBioParsing   State = "BioParsing"
	StateSecondaryNav State = "SecondaryNav"
	StateSkip         State = "Skip"
	StateAggregated   State = "Aggregated"
	StateDone         State = "Done"
	StateAborted      State = "Aborted"
)

// A search page that never loads or a profile that can't be opened ends in
// NoMatch. Extraction then runs on whatever page is open.
var transitions = map[State][]State{
	StateIdle:         {StateSearching},
	StateSearching:    {StateResolving, StateNoMatch},
	StateResolving:    {StateNavigated, StateNoMatch},
	StateNavigated:    {StateExtracting},
	StateNoMatch:      {StateExtracting},
	StateExtracting:   {StateBioParsing},
	StateBioParsing:   {StateSecondaryNav, StateSkip},
	StateSecondaryNav: {StateAggregated},
	StateSkip:         {StateAggregated},
	StateAggregated:   {StateDone},
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// CanTransition reports whether from → to is legal. Every non-terminal state
// may abort.
func CanTransition(from, to State) bool {
	if to == StateAborted {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is one recorded state change of a run
type Transition struct {
	RunID  uuid.UUID
	Target string
	From   State
	To     State
	At     time.Time
}

// Observer is notified after every accepted transition
type Observer func(Transition)

// Machine tracks the state of one run
type Machine struct {
	runID     uuid.UUID
	target    string
	state     State
	observers []Observer
}

func NewMachine(runID uuid.UUID, target string, observers ...Observer) *Machine {
	return &Machine{runID: runID, target: target, state: StateIdle, observers: observers}
}

func (m *Machine) State() State {
	return m.state
}

// To moves to next, rejecting illegal transitions without changing state
func (m *Machine) To(next State) error {
	if !CanTransition(m.state, next) {
		return fmt.Errorf("illegal transition %s -> %s", m.state, next)
	}

	t := Transition{RunID: m.runID, Target: m.target, From: m.state, To: next, At: time.Now()}
	m.state = next
	for _, observe := range m.observers {
		observe(t)
	}
	return nil
}
