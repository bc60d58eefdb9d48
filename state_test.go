package amqp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStateManagerValidTransition(t *testing.T) {
	sm := NewStateManager()
	require.Equal(t, StateUninitialized, sm.Current())

	require.NoError(t, sm.SetState(StateDisconnected, nil))
	require.Equal(t, StateDisconnected, sm.Current())
}

func TestStateManagerRejectsInvalidTransition(t *testing.T) {
	sm := NewStateManager()
	require.NoError(t, sm.SetState(StateDisconnected, nil))

	err := sm.SetState(StateOpened, nil)
	require.Error(t, err)
	var tErr *StateTransitionError
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, StateDisconnected, tErr.From)
	require.Equal(t, StateOpened, tErr.To)
	// a rejected transition leaves the state unchanged
	require.Equal(t, StateDisconnected, sm.Current())
}

func TestStateManagerSelfTransitionIsNoop(t *testing.T) {
	sm := NewStateManager()
	require.NoError(t, sm.SetState(StateDisconnected, nil))
	require.NoError(t, sm.SetState(StateDisconnected, nil))
	require.Equal(t, StateDisconnected, sm.Current())
}

func TestWaitForStateReturnsImmediatelyWhenAlreadyThere(t *testing.T) {
	sm := NewStateManager()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	reached, err := sm.WaitForState(ctx, StateUninitialized)
	require.NoError(t, err)
	require.Equal(t, StateUninitialized, reached)
}

func TestWaitForStateWakesOnTransition(t *testing.T) {
	sm := NewStateManager()
	require.NoError(t, sm.SetState(StateDisconnected, nil))

	done := make(chan State, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		reached, err := sm.WaitForState(ctx, StateConnecting)
		require.NoError(t, err)
		done <- reached
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, sm.SetState(StateConnecting, nil))

	select {
	case reached := <-done:
		require.Equal(t, StateConnecting, reached)
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken")
	}
}

func TestWaitForStateTimesOut(t *testing.T) {
	sm := NewStateManager()
	require.NoError(t, sm.SetState(StateDisconnected, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sm.WaitForState(ctx, StateConnecting)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSetStateWithExceptionForcesExceptionAndWakesEveryWaiter(t *testing.T) {
	sm := NewStateManager()
	require.NoError(t, sm.SetState(StateDisconnected, nil))

	done1 := make(chan error, 1)
	done2 := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := sm.WaitForState(ctx, StateConnecting)
		done1 <- err
	}()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := sm.WaitForState(ctx, StateOpened)
		done2 <- err
	}()

	time.Sleep(10 * time.Millisecond)
	boom := &Error{Code: 320, Reason: "connection forced"}
	require.NoError(t, sm.SetState(StateUninitialized, boom)) // next argument is ignored; exc forces StateException

	require.Equal(t, StateException, sm.Current())
	require.Equal(t, error(boom), sm.LastError())

	for _, ch := range []chan error{done1, done2} {
		select {
		case err := <-ch:
			require.Equal(t, error(boom), err)
		case <-time.After(time.Second):
			t.Fatal("waiter was never woken by exception")
		}
	}
}

func TestExceptionStateAllowsRecoveryTransitions(t *testing.T) {
	sm := NewStateManager()
	require.NoError(t, sm.SetState(StateDisconnected, nil))
	require.NoError(t, sm.SetState(StateUninitialized, errBoom))
	require.Equal(t, StateException, sm.Current())

	require.NoError(t, sm.SetState(StateDisconnected, nil))
	require.Equal(t, StateDisconnected, sm.Current())
}

var errBoom = &StateTransitionError{From: StateUninitialized, To: StateException}
