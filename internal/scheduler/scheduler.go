package scheduler

import (
	"context"
	"log"
	"time"

	"quiz-session-service/internal/event"
	"quiz-session-service/internal/repository"
	"quiz-session-service/internal/service"
	"quiz-session-service/internal/store"
)

// Scheduler runs the two periodic maintenance loops independently of
// request traffic: a short-interval expiry sweep over sessions and reset
// tokens, and a daily inactivity sweep over users. Every run re-checks its
// time predicates against the current clock, so runs are idempotent and
// safe to overlap with in-flight requests.
type Scheduler struct {
	Store     *store.SessionStore
	Tokens    repository.TokenRepository
	Lifecycle *service.UserLifecycleService
	Publisher event.Publisher

	ExpiryInterval     time.Duration
	InactivityInterval time.Duration

	now func() time.Time
}

func New(
	sessionStore *store.SessionStore,
	tokens repository.TokenRepository,
	lifecycle *service.UserLifecycleService,
	publisher event.Publisher,
	expiryInterval, inactivityInterval time.Duration,
) *Scheduler {
	return &Scheduler{
		Store:              sessionStore,
		Tokens:             tokens,
		Lifecycle:          lifecycle,
		Publisher:          publisher,
		ExpiryInterval:     expiryInterval,
		InactivityInterval: inactivityInterval,
		now:                time.Now,
	}
}

// Start launches both loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx, s.ExpiryInterval, s.RunExpirySweep)
	go s.loop(ctx, s.InactivityInterval, s.RunInactivitySweep)
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, run func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

// RunExpirySweep evicts expired sessions and purges used or expired reset
// tokens. Both steps are pure time filters; a failure in one does not stop
// the other.
func (s *Scheduler) RunExpirySweep(ctx context.Context) {
	now := s.now()

	evicted := s.Store.EvictExpired(now)
	if evicted > 0 {
		log.Printf("expiry sweep: evicted %d sessions", evicted)
		s.Publisher.Publish(event.SessionsEvicted, event.H{"count": evicted})
	}

	purged, err := s.Tokens.DeleteExpiredOrUsed(ctx, now)
	if err != nil {
		log.Printf("expiry sweep: token purge: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("expiry sweep: purged %d tokens", purged)
		s.Publisher.Publish(event.TokensPurged, event.H{"count": purged})
	}
}

// RunInactivitySweep drives both user inactivity state machines.
func (s *Scheduler) RunInactivitySweep(ctx context.Context) {
	reminders, err := s.Lifecycle.RunSolvingReminders(ctx)
	if err != nil {
		log.Printf("inactivity sweep: solving reminders: %v", err)
	} else if reminders > 0 {
		log.Printf("inactivity sweep: sent %d solving reminders", reminders)
	}

	warned, deleted, err := s.Lifecycle.RunDeletionSweep(ctx)
	if err != nil {
		log.Printf("inactivity sweep: deletion sweep: %v", err)
		return
	}
	if warned > 0 || deleted > 0 {
		log.Printf("inactivity sweep: warned %d users, deleted %d users", warned, deleted)
	}
}
