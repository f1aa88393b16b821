package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DeadlineSweeper is satisfied by service.TaskService.
type DeadlineSweeper interface {
	SweepDeadlines(ctx context.Context, window time.Duration) (int, error)
}

// DeadlineScheduler periodically notifies assignees about approaching and
// missed task deadlines.
type DeadlineScheduler struct {
	tasks    DeadlineSweeper
	interval time.Duration
	window   time.Duration

	stop chan struct{}
	once sync.Once
	done chan struct{}
}

func NewDeadlineScheduler(tasks DeadlineSweeper, interval, window time.Duration) *DeadlineScheduler {
	return &DeadlineScheduler{
		tasks:    tasks,
		interval: interval,
		window:   window,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval. A
// non-positive interval disables the scheduler.
func (s *DeadlineScheduler) Start() {
	if s.interval <= 0 {
		log.Info().Msg("deadline scheduler disabled")
		close(s.done)
		return
	}
	log.Info().Dur("interval", s.interval).Dur("window", s.window).Msg("deadline scheduler started")

	go func() {
		defer close(s.done)
		s.sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				log.Info().Msg("deadline scheduler stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sweep. Safe to call more
// than once.
func (s *DeadlineScheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *DeadlineScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	n, err := s.tasks.SweepDeadlines(ctx, s.window)
	if err != nil {
		log.Error().Err(err).Msg("sweep deadlines")
		return
	}
	if n > 0 {
		log.Info().Int("notified", n).Msg("deadline reminders sent")
	}
}
