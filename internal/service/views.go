package service

import (
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseItemView is a workout item with its catalog entry. Done is only
// filled in for the student portal.
type ExerciseItemView struct {
	domain.WorkoutExercise
	Exercise *domain.Exercise
	Done     bool
}

type SessionView struct {
	ID        primitive.ObjectID
	DayOfWeek int
	Name      string
	Today     bool
	Items     []ExerciseItemView
}

type WorkoutPlanView struct {
	Plan     domain.WorkoutPlan
	Sessions []SessionView
}

type MealView struct {
	ID         primitive.ObjectID
	Name       string
	TimeOfDay  string
	OrderIndex int
	Done       bool
	Foods      []domain.MealFood
	Totals     domain.Macros
}

type DietPlanView struct {
	Plan   domain.DietPlan
	Meals  []MealView
	Totals domain.Macros
}

// noDay marks views built outside the portal, where no weekday is "today".
const noDay = -1

// workoutView renders a composer tree. day may be nil.
func workoutView(ctx context.Context, catalog repository.CatalogRepository, c *composer.WorkoutComposer, day *ledger.DayView, today int) (*WorkoutPlanView, error) {
	sessions := c.Sessions()
	var ids []primitive.ObjectID
	for _, s := range sessions {
		for _, item := range s.Items {
			ids = append(ids, item.ExerciseID)
		}
	}
	exercises, err := exercisesByID(ctx, catalog, ids)
	if err != nil {
		return nil, err
	}

	view := &WorkoutPlanView{Plan: *c.Plan(), Sessions: make([]SessionView, 0, len(sessions))}
	for _, s := range sessions {
		sv := SessionView{
			ID:        s.ID,
			DayOfWeek: s.DayOfWeek,
			Name:      s.Name,
			Today:     s.DayOfWeek == today,
			Items:     make([]ExerciseItemView, 0, len(s.Items)),
		}
		for _, item := range s.Items {
			iv := ExerciseItemView{WorkoutExercise: item}
			if e, ok := exercises[item.ExerciseID]; ok {
				iv.Exercise = &e
			}
			if day != nil {
				iv.Done = day.Done(item.ID)
			}
			sv.Items = append(sv.Items, iv)
		}
		view.Sessions = append(view.Sessions, sv)
	}
	return view, nil
}

// dietView renders a composer tree. day may be nil. A completed meal marks
// all of its foods as done.
func dietView(c *composer.DietComposer, day *ledger.DayView) *DietPlanView {
	meals := c.Meals()
	view := &DietPlanView{Plan: *c.Plan(), Meals: make([]MealView, 0, len(meals)), Totals: c.DailyTotals()}
	for i, m := range meals {
		mv := MealView{
			ID:         m.ID,
			Name:       m.Name,
			TimeOfDay:  m.TimeOfDay,
			OrderIndex: i,
			Foods:      m.Items,
			Totals:     m.Totals(),
		}
		if mv.Foods == nil {
			mv.Foods = []domain.MealFood{}
		}
		if day != nil {
			mv.Done = day.Done(m.ID)
		}
		view.Meals = append(view.Meals, mv)
	}
	return view
}
