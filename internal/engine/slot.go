package engine

import (
	"crypto/tls"
	"net"
	"sync/atomic"
)

// State is a connection slot's position in the accept -> handshake ->
// forward -> closing -> teardown lifecycle. There is no explicit
// Disconnected state: once a slot's connection is torn down it is simply no
// longer present anywhere, and its pool capacity is released.
type State int

const (
	// StateAccept holds a valid tlsConn but no backendConn yet.
	StateAccept State = iota
	// StateConnected holds both tlsConn and backendConn; pumps are active.
	StateConnected
	// StateClosing means at least one pump has finished; the forced read
	// deadline stops the other pump, which returns after draining what it
	// already buffered.
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateAccept:
		return "accept"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

const (
	// c2sBufferSize is the client-to-backend buffer capacity.
	c2sBufferSize = 2 * 1024
	// s2cBufferSize is the backend-to-client buffer capacity.
	s2cBufferSize = 8 * 1024
)

// Slot holds everything needed to service one connection. It is allocated
// from the Pool at accept and released back to it at teardown; its index is
// only meaningful for the connection's own lifetime.
//
// state is an atomic.Int32 rather than a plain field: both pump goroutines
// and any introspection reader (the monitor, tests) can observe or set it
// concurrently.
type Slot struct {
	ID          int
	state       atomic.Int32
	TLSConn     *tls.Conn
	BackendConn net.Conn
	PeerAddr    string
	C2SBuf      *Buffer
	S2CBuf      *Buffer
}

// NewSlot creates a Slot in StateAccept for the given TLS connection.
func NewSlot(id int, tlsConn *tls.Conn, peerAddr string) *Slot {
	s := &Slot{
		ID:       id,
		TLSConn:  tlsConn,
		PeerAddr: peerAddr,
		C2SBuf:   NewBuffer(c2sBufferSize),
		S2CBuf:   NewBuffer(s2cBufferSize),
	}
	s.SetState(StateAccept)
	return s
}

// State returns the slot's current state.
func (s *Slot) State() State {
	return State(s.state.Load())
}

// SetState updates the slot's state.
func (s *Slot) SetState(state State) {
	s.state.Store(int32(state))
}
