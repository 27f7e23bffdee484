package service

import (
	"context"
	"errors"
	"fmt"

	"complaint-service/internal/logging"
	"complaint-service/internal/models"
	"complaint-service/internal/repository"

	"go.uber.org/zap"
)

var ErrInvalidStatus = errors.New("invalid status")

// SentimentAnalyzer resolves its own failures to models.SentimentUnknown.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) models.Sentiment
}

// SpamChecker resolves its own failures to false.
type SpamChecker interface {
	IsSpam(ctx context.Context, text string) bool
}

// GeoLocator returns its failures; the caller decides the fallback.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) (*models.GeoLocation, error)
}

// Categorizer returns its failures; the caller decides the fallback.
type Categorizer interface {
	Categorize(ctx context.Context, text string) (models.Category, error)
}

// Lookups groups the enrichment collaborators used by Create.
type Lookups struct {
	Sentiment SentimentAnalyzer
	Spam      SpamChecker // may be nil when spam checking is disabled
	Geo       GeoLocator
	Category  Categorizer
}

// Options toggles optional enrichment steps.
type Options struct {
	SpamCheckEnabled bool
}

// DraftPersistedError is returned by Create when the complaint was inserted
// but its category patch could not be stored. The complaint stays readable
// as a draft with category "other".
type DraftPersistedError struct {
	Draft *models.Complaint
	Err   error
}

func (e *DraftPersistedError) Error() string {
	return fmt.Sprintf("complaint %d persisted but category update failed: %v", e.Draft.ID, e.Err)
}

func (e *DraftPersistedError) Unwrap() error { return e.Err }

// ComplaintService orchestrates enrichment lookups around the complaint store.
type ComplaintService struct {
	repo    repository.ComplaintRepository
	lookups Lookups
	opts    Options
	logger  *zap.Logger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(
	repo repository.ComplaintRepository,
	lookups Lookups,
	opts Options,
	logger *zap.Logger,
) *ComplaintService {
	return &ComplaintService{
		repo:    repo,
		lookups: lookups,
		opts:    opts,
		logger:  logger,
	}
}

// Create enriches and stores a complaint.
//
// Lookups run sequentially: sentiment, spam (if enabled), geolocation (if
// clientIP is set), then the draft is inserted, then the category is
// classified and patched. Only store failures are returned; every lookup
// failure is logged and replaced by its fallback.
func (s *ComplaintService) Create(ctx context.Context, text, clientIP string) (*models.Complaint, error) {
	s.logger.Info("Creating new complaint", zap.String("text", logging.Preview(text, 120)))

	sentiment := s.analyzeSentiment(ctx, text)

	if s.opts.SpamCheckEnabled && s.lookups.Spam != nil {
		s.checkSpam(ctx, text)
	}

	if clientIP != "" && s.lookups.Geo != nil {
		s.locate(ctx, clientIP)
	}

	draft, err := s.repo.Create(ctx, models.NewDraft(text, sentiment))
	if err != nil {
		s.logger.Error("DB error during complaint creation",
			zap.String("severity", "critical"),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}
	s.logger.Info("Complaint created in DB", zap.Int64("id", draft.ID))

	category := s.categorize(ctx, text)

	complaint, err := s.repo.ClassifyDraft(ctx, draft.ID, category)
	if err != nil {
		s.logger.Error("DB error during category update, complaint left as draft",
			zap.String("severity", "critical"),
			zap.Int64("id", draft.ID),
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, &DraftPersistedError{Draft: draft, Err: err}
	}

	s.logger.Info("Complaint category updated",
		zap.Int64("id", complaint.ID),
		zap.String("category", string(complaint.Category)))

	return complaint, nil
}

func (s *ComplaintService) analyzeSentiment(ctx context.Context, text string) models.Sentiment {
	sentiment := models.SentimentUnknown
	if s.recovered("sentiment", func() { sentiment = s.lookups.Sentiment.Analyze(ctx, text) }) {
		return models.SentimentUnknown
	}
	if !sentiment.Valid() {
		s.logger.Error("Sentiment lookup returned an invalid value", zap.String("sentiment", string(sentiment)))
		return models.SentimentUnknown
	}

	s.logger.Debug("Sentiment analysis result", zap.String("sentiment", string(sentiment)))
	return sentiment
}

// checkSpam is observational: the result never changes the complaint.
func (s *ComplaintService) checkSpam(ctx context.Context, text string) {
	var spam bool
	if s.recovered("spam", func() { spam = s.lookups.Spam.IsSpam(ctx, text) }) {
		return
	}
	s.logger.Debug("Spam check done", zap.Bool("is_spam", spam))
}

// locate is observational: the location is logged, never stored.
func (s *ComplaintService) locate(ctx context.Context, ip string) {
	var (
		location *models.GeoLocation
		err      error
	)
	if s.recovered("geolocation", func() { location, err = s.lookups.Geo.Locate(ctx, ip) }) {
		return
	}
	if err != nil {
		s.logger.Error("GeoIP lookup failed", zap.String("ip", ip), zap.Error(err))
		return
	}
	if location != nil {
		s.logger.Debug("GeoIP lookup done",
			zap.String("ip", ip),
			zap.String("country", location.Country),
			zap.String("city", location.City))
	}
}

func (s *ComplaintService) categorize(ctx context.Context, text string) models.Category {
	var (
		category models.Category
		err      error
	)
	if s.recovered("category", func() { category, err = s.lookups.Category.Categorize(ctx, text) }) {
		return models.CategoryOther
	}
	if err != nil {
		s.logger.Error("Categorization failed", zap.Error(err))
		return models.CategoryOther
	}
	if !category.Valid() {
		s.logger.Error("Categorizer returned an invalid value", zap.String("category", string(category)))
		return models.CategoryOther
	}

	s.logger.Debug("Complaint categorized", zap.String("category", string(category)))
	return category
}

// recovered runs fn and reports whether it panicked. A panicking collaborator
// counts as a failed lookup.
func (s *ComplaintService) recovered(lookup string, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Lookup panicked", zap.String("lookup", lookup), zap.Any("panic", r))
			panicked = true
		}
	}()
	fn()
	return false
}

// GetByID returns nil, nil for an unknown id.
func (s *ComplaintService) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	s.logger.Debug("Retrieving complaint", zap.Int64("id", id))

	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint == nil {
		s.logger.Warn("Complaint not found", zap.Int64("id", id))
		return nil, nil
	}

	s.logger.Info("Complaint retrieved", zap.Int64("id", id))
	return complaint, nil
}

// List returns complaints filtered by optional status and inclusive since.
func (s *ComplaintService) List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *filter.Status)
	}

	complaints, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Complaints queried", zap.Int("count", len(complaints)))
	return complaints, nil
}

// UpdateStatus sets the status of an existing complaint. Any status may
// replace any other. Returns nil, nil without writing when id is unknown.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Complaint, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.logger.Debug("Updating complaint status", zap.Int64("id", id), zap.String("status", string(status)))

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		s.logger.Warn("Complaint for update not found", zap.Int64("id", id))
		return nil, nil
	}

	complaint, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logger.Error("DB error on status update",
			zap.String("severity", "critical"),
			zap.Int64("id", id),
			zap.Error(err))
		return nil, err
	}
	if complaint == nil {
		return nil, nil
	}

	s.logger.Info("Complaint status updated", zap.Int64("id", id), zap.String("status", string(status)))
	return complaint, nil
}
