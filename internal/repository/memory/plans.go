package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"cmp"
	"context"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutPlanRepo struct{ s *Store }

func (r *workoutPlanRepo) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_plans.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	plan.ID = primitive.NewObjectID()
	now := r.s.now()
	plan.CreatedAt, plan.UpdatedAt = now, now
	r.s.data.workoutPlans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *workoutPlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	defer r.s.rlock(ctx)()
	p, ok := r.s.data.workoutPlans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *workoutPlanRepo) GetByStudentAndTrainerID(ctx context.Context, studentID, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.list(ctx, func(p domain.WorkoutPlan) bool { return p.StudentID == studentID && p.TrainerID == trainerID }), nil
}

func (r *workoutPlanRepo) GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.list(ctx, func(p domain.WorkoutPlan) bool { return p.StudentID == studentID && p.Active }), nil
}

func (r *workoutPlanRepo) list(ctx context.Context, keep func(domain.WorkoutPlan) bool) []domain.WorkoutPlan {
	defer r.s.rlock(ctx)()
	plans := []domain.WorkoutPlan{}
	for _, p := range r.s.data.workoutPlans {
		if keep(p) {
			plans = append(plans, p)
		}
	}
	slices.SortFunc(plans, func(a, b domain.WorkoutPlan) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return plans
}

func (r *workoutPlanRepo) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_plans.update"); err != nil {
		return err
	}
	existing, ok := r.s.data.workoutPlans[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = plan.Name
	existing.Description = plan.Description
	existing.Active = plan.Active
	existing.FrequencyPerWeek = plan.FrequencyPerWeek
	existing.DurationWeeks = plan.DurationWeeks
	existing.UpdatedAt = r.s.now()
	r.s.data.workoutPlans[plan.ID] = existing
	return nil
}

func (r *workoutPlanRepo) SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_plans.update"); err != nil {
		return err
	}
	p, ok := r.s.data.workoutPlans[id]
	if !ok || p.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = r.s.now()
	r.s.data.workoutPlans[id] = p
	return nil
}

type workoutSessionRepo struct{ s *Store }

func (r *workoutSessionRepo) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_sessions.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	for _, other := range r.s.data.workoutSessions {
		if other.PlanID == session.PlanID && other.DayOfWeek == session.DayOfWeek {
			return primitive.NilObjectID, duplicate("workout_sessions.insert")
		}
	}
	session.ID = primitive.NewObjectID()
	r.s.data.workoutSessions[session.ID] = *session
	return session.ID, nil
}

func (r *workoutSessionRepo) Update(ctx context.Context, session *domain.WorkoutSession) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_sessions.update"); err != nil {
		return err
	}
	existing, ok := r.s.data.workoutSessions[session.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.s.data.workoutSessions {
		if id != session.ID && other.PlanID == existing.PlanID && other.DayOfWeek == session.DayOfWeek {
			return duplicate("workout_sessions.update")
		}
	}
	existing.Name = session.Name
	existing.DayOfWeek = session.DayOfWeek
	r.s.data.workoutSessions[session.ID] = existing
	return nil
}

func (r *workoutSessionRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	defer r.s.rlock(ctx)()
	sessions := []domain.WorkoutSession{}
	for _, ws := range r.s.data.workoutSessions {
		if ws.PlanID == planID {
			sessions = append(sessions, ws)
		}
	}
	slices.SortFunc(sessions, func(a, b domain.WorkoutSession) int { return cmp.Compare(a.DayOfWeek, b.DayOfWeek) })
	return sessions, nil
}

func (r *workoutSessionRepo) Delete(ctx context.Context, planID primitive.ObjectID, ids []primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_sessions.delete"); err != nil {
		return err
	}
	for _, id := range ids {
		if ws, ok := r.s.data.workoutSessions[id]; ok && ws.PlanID == planID {
			delete(r.s.data.workoutSessions, id)
		}
	}
	for id, item := range r.s.data.workoutExercises {
		if _, ok := r.s.data.workoutSessions[item.SessionID]; !ok && containsID(ids, item.SessionID) {
			delete(r.s.data.workoutExercises, id)
		}
	}
	return nil
}

type workoutExerciseRepo struct{ s *Store }

func (r *workoutExerciseRepo) InsertMany(ctx context.Context, items []domain.WorkoutExercise) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_exercises.insert"); err != nil {
		return err
	}
	for _, item := range items {
		if _, ok := r.s.data.workoutSessions[item.SessionID]; !ok {
			return &repository.StoreError{Op: "workout_exercises.insert", Code: "23503", Message: "session does not exist"}
		}
		if item.ID.IsZero() {
			item.ID = primitive.NewObjectID()
		}
		r.s.data.workoutExercises[item.ID] = item
	}
	return nil
}

func (r *workoutExerciseRepo) DeleteBySessionID(ctx context.Context, sessionID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("workout_exercises.delete"); err != nil {
		return err
	}
	for id, item := range r.s.data.workoutExercises {
		if item.SessionID == sessionID {
			delete(r.s.data.workoutExercises, id)
		}
	}
	return nil
}

func (r *workoutExerciseRepo) GetBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	defer r.s.rlock(ctx)()
	items := []domain.WorkoutExercise{}
	for _, item := range r.s.data.workoutExercises {
		if containsID(sessionIDs, item.SessionID) {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b domain.WorkoutExercise) int {
		if c := cmp.Compare(a.SessionID.Hex(), b.SessionID.Hex()); c != 0 {
			return c
		}
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return items, nil
}

type dietPlanRepo struct{ s *Store }

func (r *dietPlanRepo) Create(ctx context.Context, plan *domain.DietPlan) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("diet_plans.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	plan.ID = primitive.NewObjectID()
	now := r.s.now()
	plan.CreatedAt, plan.UpdatedAt = now, now
	r.s.data.dietPlans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *dietPlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlan, error) {
	defer r.s.rlock(ctx)()
	p, ok := r.s.data.dietPlans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *dietPlanRepo) GetByStudentAndTrainerID(ctx context.Context, studentID, trainerID primitive.ObjectID) ([]domain.DietPlan, error) {
	return r.list(ctx, func(p domain.DietPlan) bool { return p.StudentID == studentID && p.TrainerID == trainerID }), nil
}

func (r *dietPlanRepo) GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.DietPlan, error) {
	return r.list(ctx, func(p domain.DietPlan) bool { return p.StudentID == studentID && p.Active }), nil
}

func (r *dietPlanRepo) list(ctx context.Context, keep func(domain.DietPlan) bool) []domain.DietPlan {
	defer r.s.rlock(ctx)()
	plans := []domain.DietPlan{}
	for _, p := range r.s.data.dietPlans {
		if keep(p) {
			plans = append(plans, p)
		}
	}
	slices.SortFunc(plans, func(a, b domain.DietPlan) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return plans
}

func (r *dietPlanRepo) Update(ctx context.Context, plan *domain.DietPlan) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("diet_plans.update"); err != nil {
		return err
	}
	existing, ok := r.s.data.dietPlans[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = plan.Name
	existing.Description = plan.Description
	existing.Active = plan.Active
	existing.DailyCalories = plan.DailyCalories
	existing.DailyProtein = plan.DailyProtein
	existing.DailyCarbs = plan.DailyCarbs
	existing.DailyFat = plan.DailyFat
	existing.UpdatedAt = r.s.now()
	r.s.data.dietPlans[plan.ID] = existing
	return nil
}

func (r *dietPlanRepo) SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("diet_plans.update"); err != nil {
		return err
	}
	p, ok := r.s.data.dietPlans[id]
	if !ok || p.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = r.s.now()
	r.s.data.dietPlans[id] = p
	return nil
}

type mealRepo struct{ s *Store }

func (r *mealRepo) Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("meals.insert"); err != nil {
		return primitive.NilObjectID, err
	}
	for _, other := range r.s.data.meals {
		if other.PlanID == meal.PlanID && other.TimeOfDay == meal.TimeOfDay {
			return primitive.NilObjectID, duplicate("meals.insert")
		}
	}
	meal.ID = primitive.NewObjectID()
	r.s.data.meals[meal.ID] = *meal
	return meal.ID, nil
}

func (r *mealRepo) Update(ctx context.Context, meal *domain.Meal) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("meals.update"); err != nil {
		return err
	}
	existing, ok := r.s.data.meals[meal.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = meal.Name
	existing.TimeOfDay = meal.TimeOfDay
	existing.OrderIndex = meal.OrderIndex
	r.s.data.meals[meal.ID] = existing
	return nil
}

func (r *mealRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.Meal, error) {
	defer r.s.rlock(ctx)()
	meals := []domain.Meal{}
	for _, m := range r.s.data.meals {
		if m.PlanID == planID {
			meals = append(meals, m)
		}
	}
	slices.SortFunc(meals, func(a, b domain.Meal) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })
	return meals, nil
}

func (r *mealRepo) Delete(ctx context.Context, planID primitive.ObjectID, ids []primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("meals.delete"); err != nil {
		return err
	}
	for _, id := range ids {
		if m, ok := r.s.data.meals[id]; ok && m.PlanID == planID {
			delete(r.s.data.meals, id)
		}
	}
	for id, food := range r.s.data.mealFoods {
		if _, ok := r.s.data.meals[food.MealID]; !ok && containsID(ids, food.MealID) {
			delete(r.s.data.mealFoods, id)
		}
	}
	return nil
}

type mealFoodRepo struct{ s *Store }

func (r *mealFoodRepo) InsertMany(ctx context.Context, foods []domain.MealFood) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("meal_foods.insert"); err != nil {
		return err
	}
	for _, food := range foods {
		if _, ok := r.s.data.meals[food.MealID]; !ok {
			return &repository.StoreError{Op: "meal_foods.insert", Code: "23503", Message: "meal does not exist"}
		}
		if food.ID.IsZero() {
			food.ID = primitive.NewObjectID()
		}
		r.s.data.mealFoods[food.ID] = food
	}
	return nil
}

func (r *mealFoodRepo) DeleteByMealID(ctx context.Context, mealID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("meal_foods.delete"); err != nil {
		return err
	}
	for id, food := range r.s.data.mealFoods {
		if food.MealID == mealID {
			delete(r.s.data.mealFoods, id)
		}
	}
	return nil
}

func (r *mealFoodRepo) GetByMealIDs(ctx context.Context, mealIDs []primitive.ObjectID) ([]domain.MealFood, error) {
	defer r.s.rlock(ctx)()
	foods := []domain.MealFood{}
	for _, food := range r.s.data.mealFoods {
		if containsID(mealIDs, food.MealID) {
			foods = append(foods, food)
		}
	}
	slices.SortFunc(foods, func(a, b domain.MealFood) int {
		if c := cmp.Compare(a.MealID.Hex(), b.MealID.Hex()); c != 0 {
			return c
		}
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return foods, nil
}
