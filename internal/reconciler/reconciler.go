package reconciler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"complaint-service/internal/models"
	"complaint-service/internal/repository"
)

// Categorizer classifies complaint text.
type Categorizer interface {
	Categorize(ctx context.Context, text string) (models.Category, error)
}

// Store is the subset of the complaint repository the reconciler needs.
type Store interface {
	ListDrafts(ctx context.Context, olderThan time.Time, limit int) ([]*models.Complaint, error)
	ClassifyDraft(ctx context.Context, id int64, category models.Category) (*models.Complaint, error)
}

// Reconciler periodically classifies complaints left in the draft stage,
// i.e. those whose category patch failed after the initial insert.
type Reconciler struct {
	store       Store
	categorizer Categorizer
	logger      *zap.Logger
	interval    time.Duration
	gracePeriod time.Duration
	batchSize   int
	now         func() time.Time
}

// NewReconciler creates a new draft reconciler.
func NewReconciler(
	store Store,
	categorizer Categorizer,
	logger *zap.Logger,
	interval time.Duration,
	gracePeriod time.Duration,
	batchSize int,
) *Reconciler {
	return &Reconciler{
		store:       store,
		categorizer: categorizer,
		logger:      logger,
		interval:    interval,
		gracePeriod: gracePeriod,
		batchSize:   batchSize,
		now:         time.Now,
	}
}

// Run sweeps drafts every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Error("Draft reconciler not started: interval must be positive", zap.Duration("interval", r.interval))
		return
	}

	r.logger.Info("Draft reconciler started.",
		zap.Duration("interval", r.interval),
		zap.Duration("grace_period", r.gracePeriod))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Draft reconciler stopped.")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep classifies one batch of drafts older than the grace period and
// returns how many were classified. Drafts younger than the grace period are
// left to the request that created them.
func (r *Reconciler) Sweep(ctx context.Context) int {
	drafts, err := r.store.ListDrafts(ctx, r.now().Add(-r.gracePeriod), r.batchSize)
	if err != nil {
		r.logger.Error("Failed to list draft complaints", zap.Error(err))
		return 0
	}
	if len(drafts) == 0 {
		r.logger.Debug("No draft complaints to reconcile.")
		return 0
	}

	r.logger.Info("Reconciling draft complaints", zap.Int("count", len(drafts)))

	classified := 0
	for _, draft := range drafts {
		if ctx.Err() != nil {
			break
		}

		category, err := r.categorizer.Categorize(ctx, draft.Text)
		if err != nil {
			r.logger.Warn("Categorization failed during reconcile, using default",
				zap.Int64("id", draft.ID), zap.Error(err))
			category = models.CategoryOther
		} else if !category.Valid() {
			category = models.CategoryOther
		}

		if _, err := r.store.ClassifyDraft(ctx, draft.ID, category); err != nil {
			if errors.Is(err, repository.ErrNotDraft) || errors.Is(err, repository.ErrNotFound) {
				r.logger.Debug("Draft already handled", zap.Int64("id", draft.ID))
				continue
			}
			r.logger.Error("Failed to classify draft complaint", zap.Int64("id", draft.ID), zap.Error(err))
			continue
		}

		r.logger.Info("Draft complaint classified",
			zap.Int64("id", draft.ID),
			zap.String("category", string(category)))
		classified++
	}

	return classified
}
