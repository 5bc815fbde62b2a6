// Package ledger records completion events and answers "was this item done
// on that day" questions. Days are calendar days in the student's time zone.
package ledger

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidKind = errors.New("invalid completion kind")

// NotFoundError means the student or item is unknown, inactive or not
// assigned. Client-facing callers should treat it as access denied.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Repos groups the collaborators of a Ledger.
type Repos struct {
	Students         repository.StudentRepository
	Completions      repository.CompletionRepository
	WorkoutPlans     repository.WorkoutPlanRepository
	WorkoutSessions  repository.WorkoutSessionRepository
	WorkoutExercises repository.WorkoutExerciseRepository
	DietPlans        repository.DietPlanRepository
	Meals            repository.MealRepository
}

type Ledger struct {
	repos      Repos
	defaultLoc *time.Location
	now        func() time.Time
}

// New creates a Ledger. defaultLoc is used for students without a time zone.
func New(repos Repos, defaultLoc *time.Location) *Ledger {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Ledger{
		repos:      repos,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

// SetClock replaces the clock used to stamp new events.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Location returns the time zone days are computed in for student.
func (l *Ledger) Location(student *domain.Student) *time.Location {
	return student.Location(l.defaultLoc)
}

// DayBounds returns [start, end) of the calendar day containing ref in loc.
// The day is 23 or 25 hours long across DST switches.
func DayBounds(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := ref.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func (l *Ledger) student(ctx context.Context, id primitive.ObjectID, mustBeActive bool) (*domain.Student, error) {
	s, err := l.repos.Students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "student", ID: id.Hex()}
		}
		return nil, err
	}
	if mustBeActive && !s.Active {
		return nil, &NotFoundError{Resource: "student", ID: id.Hex()}
	}
	return s, nil
}

// RecordCompletion appends an event stating that studentID completed itemID
// now. Repeated calls on the same day are allowed; only presence is queried.
// The student must be active and the item must belong to one of their active
// plans.
func (l *Ledger) RecordCompletion(ctx context.Context, kind domain.CompletionKind, itemID, studentID primitive.ObjectID) (*domain.CompletionEvent, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if _, err := l.student(ctx, studentID, true); err != nil {
		return nil, err
	}
	assigned, err := l.assigned(ctx, kind, studentID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(assigned, itemID) {
		return nil, &NotFoundError{Resource: string(kind), ID: itemID.Hex()}
	}

	event := &domain.CompletionEvent{
		Kind:        kind,
		ItemID:      itemID,
		StudentID:   studentID,
		CompletedAt: l.now().UTC(),
	}
	if _, err := l.repos.Completions.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("recording completion: %w", err)
	}
	return event, nil
}

// assigned lists the ids of the items of kind in the student's active plans.
// Exercise completions point at workout items, meal completions at meals.
func (l *Ledger) assigned(ctx context.Context, kind domain.CompletionKind, studentID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	switch kind {
	case domain.CompletionExercise:
		plans, err := l.repos.WorkoutPlans.GetActiveByStudentID(ctx, studentID)
		if err != nil {
			return nil, err
		}
		var sessionIDs []primitive.ObjectID
		for _, p := range plans {
			sessions, err := l.repos.WorkoutSessions.GetByPlanID(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			for _, s := range sessions {
				sessionIDs = append(sessionIDs, s.ID)
			}
		}
		if len(sessionIDs) == 0 {
			return nil, nil
		}
		items, err := l.repos.WorkoutExercises.GetBySessionIDs(ctx, sessionIDs)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			ids = append(ids, item.ID)
		}
	case domain.CompletionMeal:
		plans, err := l.repos.DietPlans.GetActiveByStudentID(ctx, studentID)
		if err != nil {
			return nil, err
		}
		for _, p := range plans {
			meals, err := l.repos.Meals.GetByPlanID(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			for _, m := range meals {
				ids = append(ids, m.ID)
			}
		}
	}
	return ids, nil
}

// IsCompletedToday reports whether at least one event exists for itemID and
// studentID on the student's calendar day containing ref. It always reads
// the ledger.
func (l *Ledger) IsCompletedToday(ctx context.Context, itemID, studentID primitive.ObjectID, ref time.Time) (bool, error) {
	s, err := l.student(ctx, studentID, false)
	if err != nil {
		return false, err
	}
	start, end := DayBounds(ref, l.Location(s))
	n, err := l.repos.Completions.Count(ctx, repository.CompletionFilter{
		StudentID: studentID,
		ItemID:    &itemID,
		From:      start,
		To:        end,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CompletionsInRange returns the student's events with from <= completedAt < to,
// oldest first.
func (l *Ledger) CompletionsInRange(ctx context.Context, studentID primitive.ObjectID, from, to time.Time) ([]domain.CompletionEvent, error) {
	if _, err := l.student(ctx, studentID, false); err != nil {
		return nil, err
	}
	return l.repos.Completions.List(ctx, repository.CompletionFilter{
		StudentID: studentID,
		From:      from,
		To:        to,
	})
}
