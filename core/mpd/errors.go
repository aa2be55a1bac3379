package mpd

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by every operation except Connect when the
// session is not in the Ready state.
var ErrNotConnected = errors.New("mpd: not connected")

// ErrTimeout marks a command the daemon never answered within the bound.
var ErrTimeout = errors.New("mpd: command timed out")

// UpstreamError wraps a transport or protocol failure talking to the daemon.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("mpd: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// CommandError means the daemon accepted the connection but rejected the
// command itself.
type CommandError struct {
	Cmd string
	Err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mpd: command %q failed: %v", e.Cmd, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
