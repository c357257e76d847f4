package engine

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Default timing of the Sweeper
const (
	DefaultSweepDelay  = 30 * time.Second
	DefaultSweepPeriod = 30 * time.Second
)

// Sweeper periodically revokes expired tickets and delivers pending
// revocations
type Sweeper struct {
	engine *Engine
	delay  time.Duration
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper that runs first after delay and then every
// period; non-positive values use the defaults
func (e *Engine) NewSweeper(delay, period time.Duration) *Sweeper {
	if delay <= 0 {
		delay = DefaultSweepDelay
	}
	if period <= 0 {
		period = DefaultSweepPeriod
	}
	return &Sweeper{
		engine: e,
		delay:  delay,
		period: period,
	}
}

// Start starts the sweep loop. Calling Start on a running Sweeper has no
// effect. The loop ends when ctx is canceled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop stops the sweep loop and waits until it returned
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx, s.engine.now()); err != nil {
				log.WithError(err).Error("ticket sweep failed")
			}
			timer.Reset(s.period)
		}
	}
}

// RunOnce revokes all tickets expired at now and then tries to deliver
// pending revocations. It returns the number of revoked tickets.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) (int, error) {
	tickets, err := s.engine.backends.Tickets.List()
	if err != nil {
		return 0, err
	}
	var revoked int
	for _, t := range tickets {
		if !t.Face.Expired(now) {
			continue
		}
		ok, err := s.engine.RevokeTicket(t.ID)
		if err != nil {
			return revoked, err
		}
		if ok {
			revoked++
		}
	}
	if revoked > 0 {
		log.WithField("revoked", revoked).Info("revoked expired tickets")
	}
	return revoked, s.deliverPending(ctx, now)
}

func (s *Sweeper) deliverPending(ctx context.Context, now time.Time) error {
	if s.engine.notifier == nil {
		return nil
	}
	pending, err := s.engine.backends.Revocations.Pending()
	if err != nil {
		return err
	}
	for _, r := range pending {
		if ctx.Err() != nil {
			return nil
		}
		if err = s.engine.notifier.NotifyRevocation(ctx, r); err != nil {
			log.WithError(err).WithField("ticket", r.TicketID).Debug("revocation not delivered")
			continue
		}
		if err = s.engine.backends.Revocations.MarkDelivered(r.TicketID, now.Unix()); err != nil {
			return err
		}
		log.WithFields(log.Fields{"ticket": r.TicketID, "server": r.ServerHost}).Info("delivered revocation")
	}
	return nil
}
