package amqp

import (
	"context"
	"sync"
)

// StateManager is the Component C1 state machine: every transition is
// validated against stateTransitions before it takes effect, and every
// caller blocked in WaitForState is woken only after the transition has
// committed — grounded on aiorabbit/state.py's StateManager._set_state and
// _wait_on_state, generalized from its asyncio.Event-per-waiter/polling
// design to Go channels. Wake is scheduled onto its own goroutine rather
// than delivered synchronously inside SetState, so a waiter can never
// observe a state change before the call that produced it has returned.
type StateManager struct {
	mu      sync.Mutex
	current State
	lastErr error
	waiters []*stateWaiter
}

type stateWaiter struct {
	targets map[State]struct{}
	ch      chan State
}

func NewStateManager() *StateManager {
	return &StateManager{current: StateUninitialized}
}

// Current returns the state as of the last committed transition.
func (sm *StateManager) Current() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// LastError returns the error stored by the most recent exception-forcing
// SetState call, or nil.
func (sm *StateManager) LastError() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.lastErr
}

// SetState moves the machine to next. If exc is non-nil the transition is
// forced to StateException regardless of the table (sticky exception
// entry), mirroring _set_state(value, exc=...): any in-flight frame
// processing that hit a protocol violation always wins over whatever
// transition the caller was about to request. A transition to the state the
// machine is already in is a no-op, matching aiorabbit's self-transition
// guard. Any other transition not present in stateTransitions[current] is
// rejected with *StateTransitionError and the state is left unchanged.
func (sm *StateManager) SetState(next State, exc error) error {
	sm.mu.Lock()

	if exc != nil {
		sm.lastErr = exc
		sm.current = StateException
		fire := sm.drainWaitersLocked(StateException, true)
		sm.mu.Unlock()
		wake(fire, StateException)
		return nil
	}

	cur := sm.current
	if cur == next {
		sm.mu.Unlock()
		return nil
	}

	allowed, ok := stateTransitions[cur]
	if !ok || !containsState(allowed, next) {
		sm.mu.Unlock()
		return &StateTransitionError{From: cur, To: next}
	}

	sm.current = next
	fire := sm.drainWaitersLocked(next, false)
	sm.mu.Unlock()
	wake(fire, next)
	return nil
}

// WaitForState blocks until the machine enters one of the given states (or
// already is in one), the exception state fires, or ctx is done. It returns
// the state that was reached.
func (sm *StateManager) WaitForState(ctx context.Context, states ...State) (State, error) {
	sm.mu.Lock()
	if containsState(states, sm.current) {
		cur := sm.current
		sm.mu.Unlock()
		return cur, nil
	}
	if sm.current == StateException {
		err := sm.lastErr
		sm.mu.Unlock()
		return StateException, err
	}

	targets := make(map[State]struct{}, len(states))
	for _, s := range states {
		targets[s] = struct{}{}
	}
	w := &stateWaiter{targets: targets, ch: make(chan State, 1)}
	sm.waiters = append(sm.waiters, w)
	sm.mu.Unlock()

	select {
	case s := <-w.ch:
		if s == StateException {
			return s, sm.LastError()
		}
		return s, nil
	case <-ctx.Done():
		sm.removeWaiter(w)
		return sm.Current(), ctx.Err()
	}
}

// drainWaitersLocked removes and returns every waiter that should fire for
// this transition: one whose target set contains next, or — when this
// transition forced StateException — every outstanding waiter, since
// _wait_on_state re-raises the stored exception into all of them.
func (sm *StateManager) drainWaitersLocked(next State, exception bool) []*stateWaiter {
	if len(sm.waiters) == 0 {
		return nil
	}
	var fire, keep []*stateWaiter
	for _, w := range sm.waiters {
		if exception {
			fire = append(fire, w)
			continue
		}
		if _, ok := w.targets[next]; ok {
			fire = append(fire, w)
		} else {
			keep = append(keep, w)
		}
	}
	sm.waiters = keep
	return fire
}

func (sm *StateManager) removeWaiter(target *stateWaiter) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i, w := range sm.waiters {
		if w == target {
			sm.waiters = append(sm.waiters[:i], sm.waiters[i+1:]...)
			return
		}
	}
}

// wake delivers the fired state to each waiter on its own goroutine so the
// caller of SetState is never blocked on — or ordered relative to — a
// waiter's own resumption.
func wake(waiters []*stateWaiter, s State) {
	for _, w := range waiters {
		w := w
		go func() { w.ch <- s }()
	}
}

func containsState(states []State, s State) bool {
	for _, x := range states {
		if x == s {
			return true
		}
	}
	return false
}
