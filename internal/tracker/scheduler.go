package tracker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Scheduler runs scan cycles on a fixed interval with jitter, backing off
// after failures. It is owned by the serving layer: start it when the
// service comes up and stop it on shutdown.
type Scheduler struct {
	tracker  *Tracker
	interval time.Duration
	logger   *log.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// maxBackoffFactor caps the failure backoff at interval * 2^3.
const maxBackoffFactor = 8

// NewScheduler creates a scheduler that invokes the tracker every interval.
func NewScheduler(t *Tracker, interval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		tracker:  t,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs an immediate scan cycle and then begins the periodic loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop halts the loop and waits for any in-flight cycle to finish. A cycle
// is never cancelled midway; it completes or fails atomically from the
// caller's perspective.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	backoff := 1
	timer := time.NewTimer(0) // first cycle fires immediately
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			result := s.tracker.RunScanCycle(context.Background())
			if result.OK() {
				backoff = 1
			} else {
				s.logger.Warn("scan cycle failed, backing off", "err", result.Err())
				if backoff < maxBackoffFactor {
					backoff *= 2
				}
			}
			timer.Reset(s.nextDelay(backoff))
		case <-s.stopCh:
			return
		}
	}
}

// nextDelay returns the backoff-scaled interval with ±10% jitter so periodic
// scans do not align with other timers on the host.
func (s *Scheduler) nextDelay(backoff int) time.Duration {
	base := s.interval * time.Duration(backoff)
	jitter := time.Duration(rand.Int63n(int64(base)/5+1)) - base/10
	return base + jitter
}
