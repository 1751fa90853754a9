package service

import (
	"context"
	"errors"
	"log"
	"time"

	"quiz-session-service/internal/event"
	"quiz-session-service/internal/models"
	"quiz-session-service/internal/repository"
)

// UserLifecycleService runs the two inactivity sub-machines over the user
// statistics rows. Each run re-evaluates every predicate against the
// current clock, so overlapping runs and in-flight request traffic are
// safe; a failure on one user never stops the batch.
type UserLifecycleService struct {
	Users     repository.UserStatsRepository
	Publisher event.Publisher

	SolvingThreshold   time.Duration // T1: last solve older than this triggers a reminder
	SolvingResendAfter time.Duration // reminder repeats after this much silence
	LoginThreshold     time.Duration // T2: last login older than this triggers a deletion warning
	DeletionGrace      time.Duration // T3: warned users are deleted after this grace

	now func() time.Time
}

func NewUserLifecycleService(
	users repository.UserStatsRepository,
	publisher event.Publisher,
	solvingThreshold, solvingResendAfter, loginThreshold, deletionGrace time.Duration,
) *UserLifecycleService {
	return &UserLifecycleService{
		Users:              users,
		Publisher:          publisher,
		SolvingThreshold:   solvingThreshold,
		SolvingResendAfter: solvingResendAfter,
		LoginThreshold:     loginThreshold,
		DeletionGrace:      deletionGrace,
		now:                time.Now,
	}
}

// RunSolvingReminders walks users who have not solved since T1 and sends
// the solving reminder once per stage: first entry flips the warning flag,
// later runs resend only after the resend interval. Returns how many
// reminders went out.
func (s *UserLifecycleService) RunSolvingReminders(ctx context.Context) (int, error) {
	now := s.now()
	inactive, err := s.Users.FindSolvingInactive(ctx, now.Add(-s.SolvingThreshold))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range inactive {
		user := inactive[i]
		switch {
		case !user.LastSolvingWarningSent:
			// NEVER_WARNED -> WARNED
		case now.Sub(user.LastSolvingWarningSentAt) > s.SolvingResendAfter:
			// WARNED -> WARNED, resend
		default:
			continue
		}

		user.LastSolvingWarningSent = true
		user.LastSolvingWarningSentAt = now
		err := s.Users.UpdateVersioned(ctx, &user)
		if errors.Is(err, repository.ErrVersionConflict) {
			// Another writer touched the row; the next sweep re-evaluates.
			continue
		}
		if err != nil {
			log.Printf("solving reminder for user %s: %v", user.UserID, err)
			continue
		}

		s.Publisher.Publish(event.SolveReminder, event.H{
			"user_id":        user.UserID,
			"last_solved_at": user.LastSolvedAt,
		})
		sent++
	}
	return sent, nil
}

// RunDeletionSweep walks users who have not logged in since T2. Unwarned
// users get the deletion warning; users warned longer than the grace
// period ago are deleted. Returns (warned, deleted).
func (s *UserLifecycleService) RunDeletionSweep(ctx context.Context) (int, int, error) {
	now := s.now()
	inactive, err := s.Users.FindLoginInactive(ctx, now.Add(-s.LoginThreshold))
	if err != nil {
		return 0, 0, err
	}

	warned, deleted := 0, 0
	for i := range inactive {
		user := inactive[i]
		if !user.DeletionWarningSent {
			if s.warnDeletion(ctx, user, now) {
				warned++
			}
			continue
		}
		if now.Sub(user.DeletionWarningSentAt) > s.DeletionGrace {
			if s.deleteUser(ctx, user) {
				deleted++
			}
		}
	}
	return warned, deleted, nil
}

func (s *UserLifecycleService) warnDeletion(ctx context.Context, user models.UserStatistics, now time.Time) bool {
	user.DeletionWarningSent = true
	user.DeletionWarningSentAt = now
	err := s.Users.UpdateVersioned(ctx, &user)
	if errors.Is(err, repository.ErrVersionConflict) {
		return false
	}
	if err != nil {
		log.Printf("deletion warning for user %s: %v", user.UserID, err)
		return false
	}
	s.Publisher.Publish(event.DeletionWarning, event.H{
		"user_id":       user.UserID,
		"last_login_at": user.LastLoginAt,
		"grace_period":  s.DeletionGrace.String(),
	})
	return true
}

func (s *UserLifecycleService) deleteUser(ctx context.Context, user models.UserStatistics) bool {
	err := s.Users.Delete(ctx, user.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// A concurrent sweep already deleted the row; nothing to announce.
		return false
	}
	if err != nil {
		log.Printf("delete user %s: %v", user.UserID, err)
		return false
	}
	s.Publisher.Publish(event.UserDeleted, event.H{
		"user_id": user.UserID,
	})
	return true
}
