package composer

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// DietRepos groups the collaborators a DietComposer saves through.
type DietRepos struct {
	Tx    repository.TxManager
	Plans repository.DietPlanRepository
	Meals repository.MealRepository
	Foods repository.MealFoodRepository
}

// MealDraft is the in-memory form of a meal and its foods.
type MealDraft struct {
	ID        primitive.ObjectID // zero until first save
	TimeOfDay string             // "HH:MM", the slot key
	Name      string
	Items     []domain.MealFood
}

func (d MealDraft) State() SessionState {
	return stateOf(d.ID)
}

// Totals sums the macros of the meal's foods.
func (d MealDraft) Totals() domain.Macros {
	var m domain.Macros
	for _, f := range d.Items {
		m = m.Add(f)
	}
	return m
}

func (d *MealDraft) renumber() {
	for i := range d.Items {
		d.Items[i].OrderIndex = i
	}
}

func (d MealDraft) clone() MealDraft {
	d.Items = slices.Clone(d.Items)
	return d
}

// NormalizeTimeOfDay parses "H:MM" or "HH:MM" and returns the canonical
// "HH:MM" form.
func NormalizeTimeOfDay(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", invalid(fmt.Errorf("%w: time of day %q must be HH:MM", ErrInvalidSlot, s))
	}
	return t.Format("15:04"), nil
}

// DietComposer edits one diet plan. Meals are keyed and ordered by time of
// day; their OrderIndex is renumbered densely whenever meals change.
type DietComposer struct {
	repos     DietRepos
	plan      domain.DietPlan
	meals     []*MealDraft
	persisted []primitive.ObjectID
}

// NewDiet starts composing a diet plan that has not been stored yet.
func NewDiet(repos DietRepos, plan domain.DietPlan) *DietComposer {
	plan.ID = primitive.NilObjectID
	return &DietComposer{repos: repos, plan: plan}
}

// LoadDiet builds a composer from the stored diet plan.
func LoadDiet(ctx context.Context, repos DietRepos, planID primitive.ObjectID) (*DietComposer, error) {
	plan, err := repos.Plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	meals, err := repos.Meals.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(meals))
	for i, m := range meals {
		ids[i] = m.ID
	}
	foods, err := repos.Foods.GetByMealIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	c := &DietComposer{repos: repos, plan: *plan, persisted: ids}
	for _, m := range meals {
		draft := &MealDraft{ID: m.ID, TimeOfDay: m.TimeOfDay, Name: m.Name}
		for _, f := range foods {
			if f.MealID == m.ID {
				draft.Items = append(draft.Items, f)
			}
		}
		slices.SortStableFunc(draft.Items, func(a, b domain.MealFood) int { return a.OrderIndex - b.OrderIndex })
		draft.renumber()
		c.meals = append(c.meals, draft)
	}
	c.sortMeals()
	return c, nil
}

func (c *DietComposer) Plan() *domain.DietPlan {
	return &c.plan
}

// Meals returns a copy of the meal tree in chronological order.
func (c *DietComposer) Meals() []MealDraft {
	out := make([]MealDraft, len(c.meals))
	for i, m := range c.meals {
		out[i] = m.clone()
	}
	return out
}

func (c *DietComposer) Meal(timeOfDay string) (MealDraft, bool) {
	m := c.find(timeOfDay)
	if m == nil {
		return MealDraft{}, false
	}
	return m.clone(), true
}

// DailyTotals sums the macros of every food in the plan.
func (c *DietComposer) DailyTotals() domain.Macros {
	var total domain.Macros
	for _, m := range c.meals {
		for _, f := range m.Items {
			total = total.Add(f)
		}
	}
	return total
}

func (c *DietComposer) find(timeOfDay string) *MealDraft {
	key, err := NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return nil
	}
	for _, m := range c.meals {
		if m.TimeOfDay == key {
			return m
		}
	}
	return nil
}

func (c *DietComposer) mustFind(timeOfDay string) (*MealDraft, error) {
	m := c.find(timeOfDay)
	if m == nil {
		return nil, invalid(fmt.Errorf("%w: meal at %s", ErrSlotNotFound, timeOfDay))
	}
	return m, nil
}

// "HH:MM" strings sort chronologically.
func (c *DietComposer) sortMeals() {
	slices.SortFunc(c.meals, func(a, b *MealDraft) int { return strings.Compare(a.TimeOfDay, b.TimeOfDay) })
}

// AddMeal adds an empty meal at timeOfDay.
func (c *DietComposer) AddMeal(timeOfDay, name string) error {
	key, err := NormalizeTimeOfDay(timeOfDay)
	if err != nil {
		return err
	}
	if c.find(key) != nil {
		return &DuplicateSlotError{Slot: key}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Meal " + key
	}
	c.meals = append(c.meals, &MealDraft{TimeOfDay: key, Name: name})
	c.sortMeals()
	return nil
}

// RemoveMeal drops the meal at timeOfDay. Unknown slots are ignored.
func (c *DietComposer) RemoveMeal(timeOfDay string) {
	m := c.find(timeOfDay)
	if m == nil {
		return
	}
	c.meals = slices.DeleteFunc(c.meals, func(other *MealDraft) bool { return other == m })
}

func (c *DietComposer) RenameMeal(timeOfDay, name string) error {
	m, err := c.mustFind(timeOfDay)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(errors.New("meal name is required"))
	}
	m.Name = name
	return nil
}

// AddItem appends a food entry to the meal and returns its index.
func (c *DietComposer) AddItem(timeOfDay string, food domain.MealFood) (int, error) {
	m, err := c.mustFind(timeOfDay)
	if err != nil {
		return 0, err
	}
	food.FoodName = strings.TrimSpace(food.FoodName)
	if food.FoodName == "" {
		return 0, invalid(fmt.Errorf("%w: food name is required", ErrInvalidValue))
	}
	food.ID = primitive.NilObjectID
	food.MealID = m.ID
	m.Items = append(m.Items, food)
	m.renumber()
	return len(m.Items) - 1, nil
}

// UpdateItem sets one scalar field of the food at index.
func (c *DietComposer) UpdateItem(timeOfDay string, index int, field ItemField, value any) error {
	m, err := c.mustFind(timeOfDay)
	if err != nil {
		return err
	}
	if err := checkIndex(index, len(m.Items)); err != nil {
		return err
	}
	food := m.Items[index]
	switch field {
	case FieldFoodName:
		food.FoodName, err = asString(value)
	case FieldQuantity:
		food.Quantity, err = asFloat(value)
	case FieldUnit:
		food.Unit, err = asString(value)
	case FieldCalories:
		food.Calories, err = asFloat(value)
	case FieldProtein:
		food.Protein, err = asFloat(value)
	case FieldCarbs:
		food.Carbs, err = asFloat(value)
	case FieldFat:
		food.Fat, err = asFloat(value)
	case FieldNotes:
		food.Notes, err = asString(value)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err != nil {
		return invalid(fmt.Errorf("%s: %w", field, err))
	}
	m.Items[index] = food
	return nil
}

func (c *DietComposer) RemoveItem(timeOfDay string, index int) error {
	m, err := c.mustFind(timeOfDay)
	if err != nil {
		return err
	}
	if err := checkIndex(index, len(m.Items)); err != nil {
		return err
	}
	m.Items = slices.Delete(m.Items, index, index+1)
	m.renumber()
	return nil
}

func (c *DietComposer) MoveItem(timeOfDay string, from, to int) error {
	m, err := c.mustFind(timeOfDay)
	if err != nil {
		return err
	}
	items, err := moveItem(m.Items, from, to)
	if err != nil {
		return err
	}
	m.Items = items
	m.renumber()
	return nil
}

func (c *DietComposer) Validate() error {
	var errs error
	if strings.TrimSpace(c.plan.Name) == "" {
		errs = multierr.Append(errs, ErrEmptyPlanName)
	}
	if len(c.meals) == 0 {
		errs = multierr.Append(errs, ErrNoSessions)
	}
	if c.plan.TrainerID.IsZero() || c.plan.StudentID.IsZero() {
		errs = multierr.Append(errs, errors.New("plan needs a trainer and a student"))
	}
	for _, m := range c.meals {
		for i, f := range m.Items {
			errs = multierr.Append(errs, validateFood(m.Name, i, f))
		}
	}
	if errs != nil {
		return invalid(errs)
	}
	return nil
}

func validateFood(meal string, index int, f domain.MealFood) error {
	where := meal + " #" + strconv.Itoa(index+1)
	switch {
	case f.FoodName == "":
		return fmt.Errorf("%w: %s has no food name", ErrInvalidItemValue, where)
	case f.Quantity < 0:
		return fmt.Errorf("%w: %s has a negative quantity", ErrInvalidItemValue, where)
	case f.Calories < 0 || f.Protein < 0 || f.Carbs < 0 || f.Fat < 0:
		return fmt.Errorf("%w: %s has negative macros", ErrInvalidItemValue, where)
	}
	return nil
}

// Save reconciles the diet tree the same way WorkoutComposer.Save does, with
// meals in place of sessions. Meal OrderIndex is rewritten from the
// chronological position on every save.
func (c *DietComposer) Save(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var (
		planID  primitive.ObjectID
		mealIDs []primitive.ObjectID
		itemIDs [][]primitive.ObjectID
	)

	// Each attempt of a retried transaction starts from the composer state.
	err := c.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		plan := c.plan
		planID = primitive.NilObjectID
		mealIDs = make([]primitive.ObjectID, len(c.meals))
		itemIDs = make([][]primitive.ObjectID, len(c.meals))

		if plan.ID.IsZero() {
			id, err := c.repos.Plans.Create(ctx, &plan)
			if err != nil {
				return persistErr("creating the plan", err)
			}
			plan.ID = id
		} else if err := c.repos.Plans.Update(ctx, &plan); err != nil {
			return persistErr("updating the plan", err)
		}

		kept := make([]primitive.ObjectID, 0, len(c.meals))
		for _, m := range c.meals {
			if !m.ID.IsZero() {
				kept = append(kept, m.ID)
			}
		}
		if stale := staleIDs(c.persisted, kept); len(stale) > 0 {
			if err := c.repos.Meals.Delete(ctx, plan.ID, stale); err != nil {
				return persistErr("deleting removed meals", err)
			}
		}

		for i, m := range c.meals {
			row := domain.Meal{ID: m.ID, PlanID: plan.ID, Name: m.Name, TimeOfDay: m.TimeOfDay, OrderIndex: i}
			if row.ID.IsZero() {
				id, err := c.repos.Meals.Create(ctx, &row)
				if err != nil {
					return persistErr("creating meal "+m.Name, err)
				}
				row.ID = id
			} else if err := c.repos.Meals.Update(ctx, &row); err != nil {
				return persistErr("updating meal "+m.Name, err)
			}
			mealIDs[i] = row.ID

			if err := c.repos.Foods.DeleteByMealID(ctx, row.ID); err != nil {
				return persistErr("clearing foods of "+m.Name, err)
			}
			if len(m.Items) == 0 {
				continue
			}
			foods := make([]domain.MealFood, len(m.Items))
			itemIDs[i] = make([]primitive.ObjectID, len(m.Items))
			for j, f := range m.Items {
				if f.ID.IsZero() {
					f.ID = primitive.NewObjectID()
				}
				f.MealID = row.ID
				f.OrderIndex = j
				foods[j] = f
				itemIDs[i][j] = f.ID
			}
			if err := c.repos.Foods.InsertMany(ctx, foods); err != nil {
				return persistErr("inserting foods of "+m.Name, err)
			}
		}
		planID = plan.ID
		return nil
	})
	if err != nil {
		return err
	}

	c.plan.ID = planID
	for i, m := range c.meals {
		m.ID = mealIDs[i]
		for j := range m.Items {
			m.Items[j].ID = itemIDs[i][j]
			m.Items[j].MealID = m.ID
			m.Items[j].OrderIndex = j
		}
	}
	c.persisted = mealIDs
	return nil
}
