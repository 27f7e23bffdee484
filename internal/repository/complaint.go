package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"complaint-service/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("complaint not found")
	// ErrNotDraft is returned by ClassifyDraft when the category patch was already applied.
	ErrNotDraft = errors.New("complaint is already classified")
)

const complaintColumns = `id, text, status, sentiment, category, stage, created_at`

type ComplaintRepository interface {
	Create(ctx context.Context, draft *models.ComplaintDraft) (*models.Complaint, error)
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error)
	ClassifyDraft(ctx context.Context, id int64, category models.Category) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Complaint, error)
	ListDrafts(ctx context.Context, olderThan time.Time, limit int) ([]*models.Complaint, error)
}

type complaintRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewComplaintRepository(db *sqlx.DB, logger *zap.Logger) ComplaintRepository {
	return &complaintRepository{db: db, logger: logger, now: time.Now}
}

// withTx runs fn in a transaction, rolling back on error.
func (r *complaintRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Create inserts a draft. The store assigns id and timestamp.
func (r *complaintRepository) Create(ctx context.Context, draft *models.ComplaintDraft) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	query := `INSERT INTO complaints (text, status, sentiment, category, stage, created_at)
	          VALUES (?, ?, ?, ?, ?, ?) RETURNING ` + complaintColumns

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, tx.Rebind(query),
			draft.Text, string(draft.Status()), string(draft.Sentiment), string(draft.Category()), string(models.StageDraft), r.now().UTC(),
		).StructScan(complaint)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert complaint: %w", err)
	}

	return complaint, nil
}

// GetByID returns nil, nil when no complaint has the given id.
func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	var complaint models.Complaint
	query := r.db.Rebind(`SELECT ` + complaintColumns + ` FROM complaints WHERE id = ?`)

	err := r.db.GetContext(ctx, &complaint, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get complaint %d: %w", id, err)
	}
	return &complaint, nil
}

// List returns complaints matching the filter in insertion order.
func (r *complaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	complaints := []*models.Complaint{}
	if err := r.db.SelectContext(ctx, &complaints, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

// ClassifyDraft applies the one post-insert category patch. Only rows still in
// the draft stage are updated, so a second patch gets ErrNotDraft.
func (r *complaintRepository) ClassifyDraft(ctx context.Context, id int64, category models.Category) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	query := `UPDATE complaints SET category = ?, stage = ?
	          WHERE id = ? AND stage = ? RETURNING ` + complaintColumns

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, tx.Rebind(query),
			string(category), string(models.StageClassified), id, string(models.StageDraft),
		).StructScan(complaint)
	})
	if err == nil {
		return complaint, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update complaint %d category: %w", id, err)
	}

	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	return nil, ErrNotDraft
}

// UpdateStatus overwrites status. Returns nil, nil when the id is unknown.
func (r *complaintRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	query := `UPDATE complaints SET status = ? WHERE id = ? RETURNING ` + complaintColumns

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, tx.Rebind(query), string(status), id).StructScan(complaint)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update complaint %d status: %w", id, err)
	}
	return complaint, nil
}

// ListDrafts returns complaints whose category patch never landed.
func (r *complaintRepository) ListDrafts(ctx context.Context, olderThan time.Time, limit int) ([]*models.Complaint, error) {
	query := r.db.Rebind(`SELECT ` + complaintColumns + ` FROM complaints
	          WHERE stage = ? AND created_at < ? ORDER BY id LIMIT ?`)

	complaints := []*models.Complaint{}
	if err := r.db.SelectContext(ctx, &complaints, query, string(models.StageDraft), olderThan.UTC(), limit); err != nil {
		return nil, fmt.Errorf("failed to list draft complaints: %w", err)
	}
	return complaints, nil
}
