// ABOUTME: Engine lifecycle states
// ABOUTME: Idle, Starting, Running and Stopping
package engine

import "fmt"

// State is the engine lifecycle state
type State int32

const (
	Idle State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
