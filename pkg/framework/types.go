package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
// Radio receive loops, button readers and the console are Runnables,
// they only hand events over to the loop and never run protocol logic.
type Runnable interface {
	Run(context.Context) error
}

// Controller defines the abstract logic executed once per loop pass.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of current loop pass.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Pass returns the sequence number of the current pass, starting from 1.
	Pass() uint64

	LoopControl
}

// LoopControl exposes access to the processing loop.
type LoopControl interface {
	// TriggerNext schedules the next pass to be executed
	// immediately after the current one. It never blocks and
	// is safe to call from any goroutine.
	TriggerNext()
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefine priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvDiagnose is the alias of priority level for error reporting.
	PrLvDiagnose = PrLvTop
	// PrLvProtocol is the alias of priority level for protocol state machines.
	PrLvProtocol = PrLvNormal
	// PrLvOutput is the alias of priority level for output collaborators.
	PrLvOutput = PrLvLow
)
