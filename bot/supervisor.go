package bot

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	superInitSleep   = time.Second
	superMaxSleep    = 5 * time.Minute
	workerMaxSleep   = time.Minute
	superResetWindow = 3 * time.Minute
)

// Supervisor relaunches a long-running task after it stops, sleeping an
// exponentially growing delay between attempts. A task that ran for at
// least ResetWindow before stopping gets the delay reset to InitSleep.
// Cancellation propagates immediately and is never retried.
type Supervisor struct {
	Name        string
	InitSleep   time.Duration
	MaxSleep    time.Duration
	ResetWindow time.Duration

	// test seams
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSupervisor returns a supervisor with the stream-consumer defaults
// (1s initial, 5m cap, 3m reset window).
func NewSupervisor(name string) *Supervisor {
	return &Supervisor{
		Name:        name,
		InitSleep:   superInitSleep,
		MaxSleep:    superMaxSleep,
		ResetWindow: superResetWindow,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// NewWorkerSupervisor returns a supervisor with the shorter 1m sleep cap
// used for worker loops.
func NewWorkerSupervisor(name string) *Supervisor {
	s := NewSupervisor(name)
	s.MaxSleep = workerMaxSleep
	return s
}

// Run launches task and keeps relaunching it until ctx is cancelled. Both
// failures and clean returns are relaunched; only cancellation ends the
// loop.
func (s *Supervisor) Run(ctx context.Context, task func(ctx context.Context) error) error {
	next := s.InitSleep
	for {
		start := s.now()
		err := task(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			log.Errorf("%s failed: %+v", s.Name, err)
		}

		var sleep time.Duration
		if s.now().Sub(start) < s.ResetWindow {
			sleep = next
			next *= 2
			if next > s.MaxSleep {
				next = s.MaxSleep
			}
		} else {
			next = s.InitSleep
			sleep = next
		}

		log.Warnf("restarting %s in %s", s.Name, sleep)
		if err := s.sleep(ctx, sleep); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
