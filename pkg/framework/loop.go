package framework

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default polling interval of a Loop.
const DefaultInterval = 50 * time.Millisecond

// Loop is the cooperative, single-threaded processing loop.
// Controllers run one after another in priority order on every pass,
// nothing else touches their state. Background Runnables started with
// the loop communicate only through TriggerNext and whatever lock-free
// hand-off the controllers provide.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller

	runners []Runnable

	pass     uint64
	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtl struct {
	*Loop
}

type loopPass struct {
	loopCtl
	ctx           context.Context
	time          time.Time
	priorityLevel int
	pass          uint64
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopControl from context.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{
		Interval: DefaultInterval,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. It returns when ctx is done, a controller
// reports a FatalError or a background Runnable fails fatally.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	runner := NewRunnerWith(ctx)
	runCtx := context.WithValue(runner.Context, loopCtxKey, &loopCtl{l})
	runner.GoWith(runCtx, l.runners...)
	defer func() {
		runner.Stop()
		if err := runner.Wait(); err != nil {
			glog.Warningf("loop runners stopped: %v", err)
		}
	}()

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-runner.Done():
			if err := runner.Fatal(); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUpCh:
		}
		if err := l.Step(runCtx); err != nil {
			return err
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.TODO()); err != nil {
		log.Fatalln(err)
	}
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Step executes exactly one pass over all controllers.
// Only a FatalError is returned, all other controller errors are logged.
func (l *Loop) Step(ctx context.Context) error {
	l.pass++
	p := &loopPass{loopCtl: loopCtl{l}, time: time.Now(), pass: l.pass}
	p.ctx = context.WithValue(ctx, loopCtxKey, p)
	for i := 0; i < PriorityLevels; i++ {
		p.priorityLevel = i
		if err := runControllers(p, l.controllers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *loopPass) Context() context.Context {
	return p.ctx
}

func (p *loopPass) Time() time.Time {
	return p.time
}

func (p *loopPass) PriorityLevel() int {
	return p.priorityLevel
}

func (p *loopPass) Pass() uint64 {
	return p.pass
}

func runControllers(p *loopPass, ctls []Controller) error {
	for _, ctl := range ctls {
		err := ctl.Control(p)
		if err == nil {
			continue
		}
		var fatal *FatalError
		if errors.As(err, &fatal) {
			glog.Errorf("fatal controller error: %v", err)
			return err
		}
		glog.Errorf("controller error: %v", err)
	}
	return nil
}
