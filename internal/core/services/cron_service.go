package services

import (
	"context"
	"fmt"
	"time"

	"openshelf/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService owns the background schedules: the reconciliation sweep and
// the daily overdue report.
type CronService struct {
	cron      *cron.Cron
	reconcile *ReconcileService
	loans     *LoanService
	log       *logrus.Entry
}

// NewCronService creates a new cron service
func NewCronService(reconcile *ReconcileService, loans *LoanService, log *logger.Logger) *CronService {
	return &CronService{
		cron:      cron.New(),
		reconcile: reconcile,
		loans:     loans,
		log:       log.Component("cron"),
	}
}

// Start registers the schedules and starts the scheduler in its own
// goroutine. reconcileEvery controls the sweep cadence; the overdue report
// runs every day at 08:30 server time.
func (s *CronService) Start(reconcileEvery time.Duration) error {
	spec := fmt.Sprintf("@every %s", reconcileEvery)
	if _, err := s.cron.AddFunc(spec, s.runReconcile); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}
	if _, err := s.cron.AddFunc("30 8 * * *", s.runOverdueReport); err != nil {
		return fmt.Errorf("failed to schedule overdue report: %w", err)
	}

	s.cron.Start()
	s.log.WithField("reconcile_every", reconcileEvery.String()).Info("schedules started")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("schedules stopped")
}

func (s *CronService) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	restored, err := s.reconcile.Run(ctx)
	if err != nil {
		s.log.WithError(err).Error("reconciliation sweep failed")
		return
	}
	if restored > 0 {
		s.log.WithField("restored", restored).Info("reconciliation sweep finished")
	}
}

func (s *CronService) runOverdueReport() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	overdue, err := s.loans.GetOverdue(ctx, time.Now().UTC())
	if err != nil {
		s.log.WithError(err).Error("overdue report failed")
		return
	}
	s.log.WithField("overdue_loans", len(overdue)).Info("daily overdue report")
	for _, loan := range overdue {
		s.log.WithFields(logrus.Fields{
			"loan_id":      loan.ID,
			"user":         loan.User.Email,
			"book":         loan.Book.Title,
			"days_overdue": loan.DaysOverdue,
		}).Warn("loan overdue")
	}
}
