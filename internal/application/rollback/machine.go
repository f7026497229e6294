// Package rollback orchestrates the production rollback of an application
// version: remote stage rollback, quarantine tagging, and reassignment of
// the latest tag to a successor.
package rollback

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Event names for the rollback state machine.
const (
	// EventValidated fires when the target was found in the eligible set.
	EventValidated statekit.EventType = "VALIDATED"
	// EventRollbackDone fires when the remote stage rollback succeeded or
	// was simulated in dry-run.
	EventRollbackDone statekit.EventType = "ROLLBACK_DONE"
	// EventReassign fires after quarantine when the target held the latest
	// tag and a successor search is required.
	EventReassign statekit.EventType = "REASSIGN"
	// EventComplete fires when no further mutation is required.
	EventComplete statekit.EventType = "COMPLETE"
	// EventAbort fires on any failure before the first tag mutation.
	EventAbort statekit.EventType = "ABORT"
)

// State IDs for the rollback state machine.
var (
	StateValidating  statekit.StateID = "validating"
	StateRemote      statekit.StateID = "remote_rollback"
	StateQuarantine  statekit.StateID = "quarantining"
	StateReassigning statekit.StateID = "reassigning_latest"
	StateDone        statekit.StateID = "done"
	StateAborted     statekit.StateID = "aborted"
)

// Machine wraps the statekit state machine for one rollback run. It encodes
// the ordering invariant: read-only validation and the remote rollback
// action always precede any tag mutation, and abort is only reachable
// before the first mutation.
type Machine struct {
	interpreter *statekit.Interpreter[struct{}]
}

// NewMachine builds the rollback state machine.
func NewMachine() (*Machine, error) {
	machine, err := statekit.NewMachine[struct{}]("rollback-run").
		WithInitial(StateValidating).
		State(StateValidating).
		On(EventValidated).Target(StateRemote).
		On(EventAbort).Target(StateAborted).
		Done().
		State(StateRemote).
		On(EventRollbackDone).Target(StateQuarantine).
		On(EventAbort).Target(StateAborted).
		Done().
		State(StateQuarantine).
		On(EventReassign).Target(StateReassigning).
		On(EventComplete).Target(StateDone).
		Done().
		State(StateReassigning).
		On(EventComplete).Target(StateDone).
		Done().
		State(StateDone).
		Final().
		Done().
		State(StateAborted).
		Final().
		Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	return &Machine{interpreter: statekit.NewInterpreter(machine)}, nil
}

// Start starts the state machine interpreter.
func (m *Machine) Start() {
	m.interpreter.Start()
}

// Send sends an event to the interpreter.
func (m *Machine) Send(event statekit.EventType) {
	m.interpreter.Send(statekit.Event{Type: event})
}

// Current returns the current state.
func (m *Machine) Current() statekit.StateID {
	return m.interpreter.State().Value
}

// IsDone returns true if the machine is in a final state.
func (m *Machine) IsDone() bool {
	return m.interpreter.Done()
}
