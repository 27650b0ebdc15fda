package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// State is the scheduler's position in its run loop.
type State int32

const (
	Idle State = iota
	Running
	Sleeping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrCyclePanicked is reported for a cycle that panicked instead of returning.
var ErrCyclePanicked = errors.New("cycle panicked")

// CycleFunc is one unit of scheduled work.
type CycleFunc func(ctx context.Context) error

// CycleScheduler runs a cycle repeatedly, one at a time, re-arming after each
// run from its Target. A failing or panicking cycle never stops the loop.
type CycleScheduler struct {
	cycle      CycleFunc
	target     Target
	runOnStart bool
	logger     logrus.FieldLogger
	wrapper    cron.JobWrapper
	now        func() time.Time

	state atomic.Int32
	runs  atomic.Int64
}

func NewCycleScheduler(cycle CycleFunc, target Target, runOnStart bool, logger logrus.FieldLogger) *CycleScheduler {
	return &CycleScheduler{
		cycle:      cycle,
		target:     target,
		runOnStart: runOnStart,
		logger:     logger,
		wrapper:    cron.Recover(cron.PrintfLogger(logger)),
		now:        time.Now,
	}
}

func (s *CycleScheduler) State() State { return State(s.state.Load()) }

// Runs returns how many cycles have started.
func (s *CycleScheduler) Runs() int64 { return s.runs.Load() }

// Run blocks until ctx is cancelled. A cycle in progress is given ctx and
// is expected to return promptly once it is cancelled.
func (s *CycleScheduler) Run(ctx context.Context) {
	s.logger.WithField("target", fmt.Sprint(s.target)).Info("Scheduler started")
	defer func() {
		s.state.Store(int32(Idle))
		s.logger.WithField("runs", s.Runs()).Info("Scheduler stopped")
	}()

	if !s.runOnStart {
		now := s.now()
		if !s.sleepUntil(ctx, s.target.Next(now, now)) {
			return
		}
	}

	for {
		start := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if !s.sleepUntil(ctx, s.target.Next(start, s.now())) {
			return
		}
	}
}

func (s *CycleScheduler) runOnce(ctx context.Context) time.Time {
	s.state.Store(int32(Running))
	run := s.runs.Add(1)
	start := s.now()
	log := s.logger.WithField("run", run)
	log.Infof("Run #%d started", run)

	// err is only overwritten when the cycle returns; a recovered panic leaves it set.
	err := ErrCyclePanicked
	s.wrapper(cron.FuncJob(func() {
		err = s.cycle(ctx)
	})).Run()

	fields := logrus.Fields{"duration": s.now().Sub(start).Round(time.Millisecond).String()}
	if err != nil {
		log.WithFields(fields).WithError(err).Error("Run failed")
	} else {
		log.WithFields(fields).Info("Run completed")
	}
	s.state.Store(int32(Idle))
	return start
}

// sleepUntil waits for next and reports false if ctx ended first.
func (s *CycleScheduler) sleepUntil(ctx context.Context, next time.Time) bool {
	wait := next.Sub(s.now())
	if wait <= 0 {
		s.logger.Warn("Cycle overran its schedule, running again immediately")
		return ctx.Err() == nil
	}

	s.state.Store(int32(Sleeping))
	defer s.state.Store(int32(Idle))
	s.logger.WithFields(logrus.Fields{
		"next_run": next.Format(time.RFC3339),
		"in":       wait.Round(time.Second).String(),
	}).Info("Next run scheduled")

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
