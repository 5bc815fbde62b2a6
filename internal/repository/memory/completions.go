package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type completionRepo struct{ s *Store }

func (r *completionRepo) Append(ctx context.Context, event *domain.CompletionEvent) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("completions.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	event.ID = primitive.NewObjectID()
	r.s.data.completions = append(r.s.data.completions, *event)
	return event.ID, nil
}

func matches(e domain.CompletionEvent, f repository.CompletionFilter) bool {
	if e.StudentID != f.StudentID {
		return false
	}
	if f.ItemID != nil && e.ItemID != *f.ItemID {
		return false
	}
	if f.Kind != nil && e.Kind != *f.Kind {
		return false
	}
	return !e.CompletedAt.Before(f.From) && e.CompletedAt.Before(f.To)
}

func (r *completionRepo) List(ctx context.Context, filter repository.CompletionFilter) ([]domain.CompletionEvent, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("completions.find"); err != nil {
		return nil, err
	}
	events := []domain.CompletionEvent{}
	for _, e := range r.s.data.completions {
		if matches(e, filter) {
			events = append(events, e)
		}
	}
	slices.SortStableFunc(events, func(a, b domain.CompletionEvent) int { return a.CompletedAt.Compare(b.CompletedAt) })
	return events, nil
}

func (r *completionRepo) Count(ctx context.Context, filter repository.CompletionFilter) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("completions.count"); err != nil {
		return 0, err
	}
	var n int64
	for _, e := range r.s.data.completions {
		if matches(e, filter) {
			n++
		}
	}
	return n, nil
}
