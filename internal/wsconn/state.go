package wsconn

import "errors"

// State is the link status reported to the session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

type FrameCallback func(frame []byte)

type StateCallback func(state State)

// ErrClosed is returned by Connect after Close.
var ErrClosed = errors.New("wsconn: manager closed")
