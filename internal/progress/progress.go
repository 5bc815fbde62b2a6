// Package progress turns ledger counts into completion rates, bands and
// per-student reports.
package progress

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ExcellentThreshold = 80.0
	GoodThreshold      = 60.0

	DateLayout      = "02/01/2006"
	TimestampLayout = "02/01/2006 15:04"
)

var ErrInvalidRange = errors.New("report range ends before it starts")

// CompletionRate returns completed/total as a percentage rounded to two
// decimals, or 0 when nothing is assigned.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*100) / 100
}

// Classify maps a rate to its band. Lower bounds are inclusive.
func Classify(rate float64) domain.Band {
	switch {
	case rate >= ExcellentThreshold:
		return domain.BandExcellent
	case rate >= GoodThreshold:
		return domain.BandGood
	default:
		return domain.BandNeedsAttention
	}
}

// Repos groups the collaborators of an Aggregator.
type Repos struct {
	Users            repository.UserRepository
	Students         repository.StudentRepository
	WorkoutPlans     repository.WorkoutPlanRepository
	WorkoutSessions  repository.WorkoutSessionRepository
	WorkoutExercises repository.WorkoutExerciseRepository
}

type Aggregator struct {
	repos  Repos
	ledger *ledger.Ledger
	now    func() time.Time
}

func New(repos Repos, l *ledger.Ledger) *Aggregator {
	return &Aggregator{repos: repos, ledger: l, now: time.Now}
}

// SetClock replaces the clock used for GeneratedAt.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// AssignedExercises returns the ids of the workout items currently in the
// student's active plans from trainerID. This is the current assignment, not
// a historical snapshot.
func (a *Aggregator) AssignedExercises(ctx context.Context, trainerID, studentID primitive.ObjectID) ([]primitive.ObjectID, error) {
	plans, err := a.repos.WorkoutPlans.GetActiveByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	var sessionIDs []primitive.ObjectID
	for _, p := range plans {
		if p.TrainerID != trainerID {
			continue
		}
		sessions, err := a.repos.WorkoutSessions.GetByPlanID(ctx, p.ID)
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
	items, err := a.repos.WorkoutExercises.GetBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids, nil
}

// ComputeCompletionRate counts the student's exercise completions in
// [from, to) against the number of planItems. Every event counts, including
// repeats of the same item.
func (a *Aggregator) ComputeCompletionRate(ctx context.Context, studentID primitive.ObjectID, planItems []primitive.ObjectID, from, to time.Time) (float64, error) {
	events, err := a.ledger.CompletionsInRange(ctx, studentID, from, to)
	if err != nil {
		return 0, err
	}
	completed, _ := tally(events)
	return CompletionRate(completed, len(planItems)), nil
}

// tally splits events into exercise and meal counts.
func tally(events []domain.CompletionEvent) (workouts, meals int) {
	for _, e := range events {
		switch e.Kind {
		case domain.CompletionExercise:
			workouts++
		case domain.CompletionMeal:
			meals++
		}
	}
	return workouts, meals
}

// dateIn is midnight of t's calendar date in loc; t's own clock and zone are
// ignored.
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// BuildReport summarizes the student over the calendar dates from..to, both
// included, evaluated in the student's time zone.
func (a *Aggregator) BuildReport(ctx context.Context, trainerID, studentID primitive.ObjectID, from, to time.Time) (*domain.Report, error) {
	trainer, err := a.repos.Users.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ledger.NotFoundError{Resource: "trainer", ID: trainerID.Hex()}
		}
		return nil, err
	}
	student, err := a.repos.Students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ledger.NotFoundError{Resource: "student", ID: studentID.Hex()}
		}
		return nil, err
	}
	if student.TrainerID != trainerID {
		return nil, &ledger.NotFoundError{Resource: "student", ID: studentID.Hex()}
	}
	return a.build(ctx, trainer, student, from, to)
}

// BuildReports builds a report for every active student of the trainer.
func (a *Aggregator) BuildReports(ctx context.Context, trainerID primitive.ObjectID, from, to time.Time) ([]domain.Report, error) {
	trainer, err := a.repos.Users.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ledger.NotFoundError{Resource: "trainer", ID: trainerID.Hex()}
		}
		return nil, err
	}
	students, err := a.repos.Students.GetByTrainerID(ctx, trainerID, true)
	if err != nil {
		return nil, err
	}
	reports := make([]domain.Report, 0, len(students))
	for i := range students {
		r, err := a.build(ctx, trainer, &students[i], from, to)
		if err != nil {
			return nil, fmt.Errorf("report for student %s: %w", students[i].ID.Hex(), err)
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

func (a *Aggregator) build(ctx context.Context, trainer *domain.User, student *domain.Student, from, to time.Time) (*domain.Report, error) {
	loc := a.ledger.Location(student)
	first, last := dateIn(from, loc), dateIn(to, loc)
	if last.Before(first) {
		return nil, ErrInvalidRange
	}
	start, end := first, last.AddDate(0, 0, 1)

	items, err := a.AssignedExercises(ctx, trainer.ID, student.ID)
	if err != nil {
		return nil, err
	}
	events, err := a.ledger.CompletionsInRange(ctx, student.ID, start, end)
	if err != nil {
		return nil, err
	}
	workouts, meals := tally(events)
	rate := CompletionRate(workouts, len(items))

	return &domain.Report{
		StudentID:          student.ID.Hex(),
		StudentName:        student.Name,
		StudentEmail:       student.Email,
		StudentPhone:       student.Phone,
		TrainerName:        trainer.Name,
		TrainerDocument:    trainer.Document,
		TrainerCref:        trainer.Cref,
		WorkoutCompletions: workouts,
		DietCompletions:    meals,
		TotalExercises:     len(items),
		CompletedExercises: workouts,
		CompletionRate:     rate,
		Band:               Classify(rate),
		PeriodStart:        first.Format(DateLayout),
		PeriodEnd:          last.Format(DateLayout),
		GeneratedAt:        a.now().In(loc).Format(TimestampLayout),
	}, nil
}
