package service

import (
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrLinkNotFound is returned for unknown tokens and for inactive students.
var ErrLinkNotFound = errors.New("access link not found")

// PortalWorkout is what a student sees on the workout page for one day.
type PortalWorkout struct {
	StudentName string
	Date        time.Time // start of the student's day
	Today       int       // weekday, 0 = Sunday
	Plans       []WorkoutPlanView
	DoneToday   int
}

type PortalDiet struct {
	StudentName string
	Date        time.Time
	Plans       []DietPlanView
	DoneToday   int
}

// PortalService serves the token-authenticated student pages. Students only
// see active plans and may only mark items of those plans as done.
type PortalService interface {
	Workout(ctx context.Context, token string, ref time.Time) (*PortalWorkout, error)
	Diet(ctx context.Context, token string, ref time.Time) (*PortalDiet, error)
	RecordCompletion(ctx context.Context, token string, kind domain.CompletionKind, itemID primitive.ObjectID) (*domain.CompletionEvent, error)
	ItemDoneToday(ctx context.Context, token string, itemID primitive.ObjectID, ref time.Time) (bool, error)
}

type portalService struct {
	studentRepo repository.StudentRepository
	workout     composer.WorkoutRepos
	diet        composer.DietRepos
	catalogRepo repository.CatalogRepository
	ledger      *ledger.Ledger
	metrics     *metrics.Manager
}

func NewPortalService(
	studentRepo repository.StudentRepository,
	workout composer.WorkoutRepos,
	diet composer.DietRepos,
	catalogRepo repository.CatalogRepository,
	l *ledger.Ledger,
	metricsManager *metrics.Manager,
) PortalService {
	return &portalService{
		studentRepo: studentRepo,
		workout:     workout,
		diet:        diet,
		catalogRepo: catalogRepo,
		ledger:      l,
		metrics:     metricsManager,
	}
}

func (s *portalService) resolve(ctx context.Context, token string) (*domain.Student, error) {
	if token == "" {
		return nil, ErrLinkNotFound
	}
	student, err := s.studentRepo.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if !student.Active {
		return nil, ErrLinkNotFound
	}
	return student, nil
}

func (s *portalService) Workout(ctx context.Context, token string, ref time.Time) (*PortalWorkout, error) {
	student, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	day, err := s.ledger.Day(ctx, student, ref)
	if err != nil {
		return nil, err
	}
	today := int(day.Start.Weekday())

	plans, err := s.workout.Plans.GetActiveByStudentID(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	out := &PortalWorkout{
		StudentName: student.Name,
		Date:        day.Start,
		Today:       today,
		Plans:       make([]WorkoutPlanView, 0, len(plans)),
	}
	for _, p := range plans {
		c, err := composer.LoadWorkout(ctx, s.workout, p.ID)
		if err != nil {
			return nil, fmt.Errorf("loading plan %s: %w", p.ID.Hex(), err)
		}
		view, err := workoutView(ctx, s.catalogRepo, c, day, today)
		if err != nil {
			return nil, err
		}
		for _, sv := range view.Sessions {
			for _, item := range sv.Items {
				if item.Done {
					out.DoneToday++
				}
			}
		}
		out.Plans = append(out.Plans, *view)
	}
	return out, nil
}

func (s *portalService) Diet(ctx context.Context, token string, ref time.Time) (*PortalDiet, error) {
	student, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	day, err := s.ledger.Day(ctx, student, ref)
	if err != nil {
		return nil, err
	}

	plans, err := s.diet.Plans.GetActiveByStudentID(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	out := &PortalDiet{
		StudentName: student.Name,
		Date:        day.Start,
		Plans:       make([]DietPlanView, 0, len(plans)),
	}
	for _, p := range plans {
		c, err := composer.LoadDiet(ctx, s.diet, p.ID)
		if err != nil {
			return nil, fmt.Errorf("loading plan %s: %w", p.ID.Hex(), err)
		}
		view := dietView(c, day)
		for _, m := range view.Meals {
			if m.Done {
				out.DoneToday++
			}
		}
		out.Plans = append(out.Plans, *view)
	}
	return out, nil
}

func (s *portalService) RecordCompletion(ctx context.Context, token string, kind domain.CompletionKind, itemID primitive.ObjectID) (*domain.CompletionEvent, error) {
	student, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	event, err := s.ledger.RecordCompletion(ctx, kind, itemID, student.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.CompletionRecorded(string(kind))
	log.WithFields(log.Fields{
		"student": student.ID.Hex(),
		"kind":    kind,
		"item":    itemID.Hex(),
	}).Debug("completion recorded")
	return event, nil
}

// ItemDoneToday reports whether the student marked itemID as done on the
// calendar day containing ref, in the student's time zone.
func (s *portalService) ItemDoneToday(ctx context.Context, token string, itemID primitive.ObjectID, ref time.Time) (bool, error) {
	student, err := s.resolve(ctx, token)
	if err != nil {
		return false, err
	}
	return s.ledger.IsCompletedToday(ctx, itemID, student.ID, ref)
}
