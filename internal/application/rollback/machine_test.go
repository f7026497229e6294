package rollback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStartedMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine()
	require.NoError(t, err)
	m.Start()
	return m
}

func TestMachine_HappyPathWithReassignment(t *testing.T) {
	m := newStartedMachine(t)
	assert.Equal(t, StateValidating, m.Current())

	m.Send(EventValidated)
	assert.Equal(t, StateRemote, m.Current())

	m.Send(EventRollbackDone)
	assert.Equal(t, StateQuarantine, m.Current())

	m.Send(EventReassign)
	assert.Equal(t, StateReassigning, m.Current())

	m.Send(EventComplete)
	assert.Equal(t, StateDone, m.Current())
	assert.True(t, m.IsDone())
}

func TestMachine_CompletesWithoutReassignment(t *testing.T) {
	m := newStartedMachine(t)

	m.Send(EventValidated)
	m.Send(EventRollbackDone)
	m.Send(EventComplete)

	assert.Equal(t, StateDone, m.Current())
	assert.True(t, m.IsDone())
}

func TestMachine_AbortFromValidating(t *testing.T) {
	m := newStartedMachine(t)

	m.Send(EventAbort)
	assert.Equal(t, StateAborted, m.Current())
	assert.True(t, m.IsDone())
}

func TestMachine_AbortFromRemoteRollback(t *testing.T) {
	m := newStartedMachine(t)

	m.Send(EventValidated)
	m.Send(EventAbort)
	assert.Equal(t, StateAborted, m.Current())
}

func TestMachine_AbortUnreachableAfterMutationStarts(t *testing.T) {
	m := newStartedMachine(t)

	m.Send(EventValidated)
	m.Send(EventRollbackDone)

	// Once quarantining begins, abort is no longer a legal transition.
	m.Send(EventAbort)
	assert.Equal(t, StateQuarantine, m.Current())
}

func TestMachine_IgnoresOutOfOrderEvents(t *testing.T) {
	m := newStartedMachine(t)

	// Tag mutation events before validation must not move the machine.
	m.Send(EventRollbackDone)
	m.Send(EventReassign)
	m.Send(EventComplete)
	assert.Equal(t, StateValidating, m.Current())
}
