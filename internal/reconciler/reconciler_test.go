package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"complaint-service/internal/models"
	"complaint-service/internal/repository"
)

type fakeStore struct {
	drafts     []*models.Complaint
	listErr    error
	classifyFn func(id int64, c models.Category) error
	olderThan  time.Time
	limit      int
	classified map[int64]models.Category
}

func (s *fakeStore) ListDrafts(_ context.Context, olderThan time.Time, limit int) ([]*models.Complaint, error) {
	s.olderThan = olderThan
	s.limit = limit
	return s.drafts, s.listErr
}

func (s *fakeStore) ClassifyDraft(_ context.Context, id int64, category models.Category) (*models.Complaint, error) {
	if s.classifyFn != nil {
		if err := s.classifyFn(id, category); err != nil {
			return nil, err
		}
	}
	if s.classified == nil {
		s.classified = map[int64]models.Category{}
	}
	s.classified[id] = category
	return &models.Complaint{ID: id, Category: category, Stage: models.StageClassified}, nil
}

type fakeCategorizer map[string]models.Category

func (f fakeCategorizer) Categorize(_ context.Context, text string) (models.Category, error) {
	c, ok := f[text]
	if !ok {
		return "", errors.New("model unavailable")
	}
	return c, nil
}

func newTestReconciler(store Store, cat Categorizer, now time.Time) *Reconciler {
	r := NewReconciler(store, cat, zap.NewNop(), time.Minute, 2*time.Minute, 25)
	r.now = func() time.Time { return now }
	return r
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{
		drafts: []*models.Complaint{
			{ID: 1, Text: "card declined", Stage: models.StageDraft},
			{ID: 2, Text: "app freezes", Stage: models.StageDraft},
			{ID: 3, Text: "???", Stage: models.StageDraft},
		},
	}
	cat := fakeCategorizer{
		"card declined": models.CategoryPayment,
		"app freezes":   models.CategoryTechnical,
	}

	r := newTestReconciler(store, cat, now)
	if got := r.Sweep(context.Background()); got != 3 {
		t.Fatalf("Sweep() = %d, want 3", got)
	}

	if !store.olderThan.Equal(now.Add(-2 * time.Minute)) {
		t.Errorf("olderThan = %v", store.olderThan)
	}
	if store.limit != 25 {
		t.Errorf("limit = %d, want 25", store.limit)
	}

	want := map[int64]models.Category{
		1: models.CategoryPayment,
		2: models.CategoryTechnical,
		3: models.CategoryOther,
	}
	for id, c := range want {
		if store.classified[id] != c {
			t.Errorf("draft %d classified as %q, want %q", id, store.classified[id], c)
		}
	}
}

func TestSweep_SkipsAlreadyClassified(t *testing.T) {
	store := &fakeStore{
		drafts: []*models.Complaint{
			{ID: 1, Text: "a", Stage: models.StageDraft},
			{ID: 2, Text: "b", Stage: models.StageDraft},
		},
		classifyFn: func(id int64, _ models.Category) error {
			if id == 1 {
				return repository.ErrNotDraft
			}
			return nil
		},
	}
	cat := fakeCategorizer{"a": models.CategoryOther, "b": models.CategoryOther}

	r := newTestReconciler(store, cat, time.Now())
	if got := r.Sweep(context.Background()); got != 1 {
		t.Errorf("Sweep() = %d, want 1", got)
	}
}

func TestSweep_ListError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}

	r := newTestReconciler(store, fakeCategorizer{}, time.Now())
	if got := r.Sweep(context.Background()); got != 0 {
		t.Errorf("Sweep() = %d, want 0", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	r := NewReconciler(&fakeStore{}, fakeCategorizer{}, zap.NewNop(), 10*time.Millisecond, time.Minute, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_NonPositiveInterval(t *testing.T) {
	r := NewReconciler(&fakeStore{}, fakeCategorizer{}, zap.NewNop(), -time.Minute, time.Minute, 10)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with a negative interval did not return")
	}
}
