package services

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// ReconcileService repairs the consistency gap of loan creation. A PENDING
// intent older than the expiry window means the inventory decrement committed
// but the loan row was never written; the copy is restored and the intent
// closed.
type ReconcileService struct {
	intents   repositories.LoanIntentRepository
	inventory BookInventory
	expiry    time.Duration
	log       *logrus.Entry
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(
	intents repositories.LoanIntentRepository,
	inventory BookInventory,
	expiry time.Duration,
	log *logger.Logger,
) *ReconcileService {
	return &ReconcileService{
		intents:   intents,
		inventory: inventory,
		expiry:    expiry,
		log:       log.Component("reconciler"),
	}
}

// Run performs one reconciliation sweep and returns how many orphaned
// decrements were restored.
func (s *ReconcileService) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.expiry)
	orphans, err := s.intents.ListExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, intent := range orphans {
		if _, err := s.inventory.AdjustAvailability(ctx, intent.BookID, 1); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"intent_id": intent.ID,
				"book_id":   intent.BookID,
			}).Error("failed to restore orphaned copy")
			continue
		}
		if err := s.intents.MarkReconciled(ctx, intent.ID); err != nil {
			s.log.WithError(err).WithField("intent_id", intent.ID).
				Error("copy restored but intent not closed, next sweep will double-restore")
			continue
		}
		restored++
		s.log.WithFields(logrus.Fields{
			"intent_id": intent.ID,
			"book_id":   intent.BookID,
		}).Info("restored orphaned inventory decrement")
	}
	return restored, nil
}
