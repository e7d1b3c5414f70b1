// Package state holds the status machine shared by the share dispatcher and
// the clipboard copier.
package state

import "sync"

// Status is the lifecycle position of an operation.
type Status string

const (
	Idle    Status = "idle"
	Sharing Status = "sharing"
	Success Status = "success"
	Error   Status = "error"
)

// Machine tracks one Status. Every invocation passes through Sharing before
// it can reach Success or Error.
//
// Begin hands out a generation number. Only the latest generation may finish,
// so a result that arrives after Reset, or after a newer invocation started,
// does not move the status.
type Machine struct {
	mu           sync.Mutex
	status       Status
	err          error
	gen          uint64
	onTransition func(from, to Status)
}

// NewMachine returns an idle machine. onTransition may be nil.
func NewMachine(onTransition func(from, to Status)) *Machine {
	return &Machine{status: Idle, onTransition: onTransition}
}

// Begin moves to Sharing, clears the last error and returns the invocation's
// generation.
func (m *Machine) Begin() uint64 {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	from := m.status
	m.status = Sharing
	m.err = nil
	m.mu.Unlock()

	m.notify(from, Sharing)
	return gen
}

// Succeed moves generation gen from Sharing to Success.
func (m *Machine) Succeed(gen uint64) bool {
	return m.finish(gen, Success, nil)
}

// Fail moves generation gen from Sharing to Error and records err.
func (m *Machine) Fail(gen uint64, err error) bool {
	return m.finish(gen, Error, err)
}

func (m *Machine) finish(gen uint64, to Status, err error) bool {
	m.mu.Lock()
	if gen != m.gen || m.status != Sharing {
		m.mu.Unlock()
		return false
	}
	m.status = to
	m.err = err
	m.mu.Unlock()

	m.notify(Sharing, to)
	return true
}

// Reset returns to Idle and clears the error. Results of in-flight
// invocations are discarded. Resetting an idle machine is a no-op.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.gen++
	from := m.status
	m.status = Idle
	m.err = nil
	m.mu.Unlock()

	if from != Idle {
		m.notify(from, Idle)
	}
}

// ResetIf returns to Idle only if gen is still the current generation and
// the machine is in Success. Used by owner timers.
func (m *Machine) ResetIf(gen uint64) bool {
	m.mu.Lock()
	if gen != m.gen || m.status != Success {
		m.mu.Unlock()
		return false
	}
	m.status = Idle
	m.mu.Unlock()

	m.notify(Success, Idle)
	return true
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the error of the last failed invocation, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// IsSharing reports whether an invocation is in flight.
func (m *Machine) IsSharing() bool {
	return m.Status() == Sharing
}

func (m *Machine) notify(from, to Status) {
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
}
