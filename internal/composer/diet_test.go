package composer_test

import (
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository/memory"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func dietRepos(store *memory.Store) composer.DietRepos {
	return composer.DietRepos{
		Tx:    store,
		Plans: store.DietPlans(),
		Meals: store.Meals(),
		Foods: store.MealFoods(),
	}
}

func newDietPlan() domain.DietPlan {
	return domain.DietPlan{
		TrainerID: primitive.NewObjectID(),
		StudentID: primitive.NewObjectID(),
		Name:      "Cutting",
		Active:    true,
	}
}

func TestNormalizeTimeOfDay(t *testing.T) {
	for in, want := range map[string]string{"7:30": "07:30", "07:30": "07:30", " 21:05 ": "21:05"} {
		got, err := composer.NormalizeTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "24:00", "7.30", "breakfast"} {
		_, err := composer.NormalizeTimeOfDay(in)
		assert.ErrorIs(t, err, composer.ErrInvalidSlot, in)
	}
}

func TestDietComposer_MealsOrderedByTime(t *testing.T) {
	c := composer.NewDiet(dietRepos(memory.NewStore()), newDietPlan())
	require.NoError(t, c.AddMeal("19:00", "Dinner"))
	require.NoError(t, c.AddMeal("7:00", "Breakfast"))
	require.NoError(t, c.AddMeal("12:30", ""))

	meals := c.Meals()
	require.Len(t, meals, 3)
	assert.Equal(t, "07:00", meals[0].TimeOfDay)
	assert.Equal(t, "Meal 12:30", meals[1].Name)
	assert.Equal(t, "19:00", meals[2].TimeOfDay)

	var dup *composer.DuplicateSlotError
	require.ErrorAs(t, c.AddMeal("07:00", "Second breakfast"), &dup)
	assert.Equal(t, "07:00", dup.Slot)
	assert.Len(t, c.Meals(), 3)
}

func TestDietComposer_Items(t *testing.T) {
	c := composer.NewDiet(dietRepos(memory.NewStore()), newDietPlan())
	require.NoError(t, c.AddMeal("08:00", "Breakfast"))

	_, err := c.AddItem("08:00", domain.MealFood{FoodName: "Oats", Quantity: 80, Unit: "g", Calories: 300, Protein: 10, Carbs: 54, Fat: 5})
	require.NoError(t, err)
	_, err = c.AddItem("08:00", domain.MealFood{FoodName: "Milk", Quantity: 200, Unit: "ml", Calories: 120, Protein: 6.5, Carbs: 9.5, Fat: 6.5})
	require.NoError(t, err)
	_, err = c.AddItem("08:00", domain.MealFood{FoodName: " "})
	assert.ErrorIs(t, err, composer.ErrInvalidValue)
	_, err = c.AddItem("09:00", domain.MealFood{FoodName: "Egg"})
	assert.ErrorIs(t, err, composer.ErrSlotNotFound)

	require.NoError(t, c.UpdateItem("8:00", 1, composer.FieldQuantity, 250))
	assert.ErrorIs(t, c.UpdateItem("08:00", 0, composer.FieldSets, 3), composer.ErrUnknownField)

	totals := c.DailyTotals()
	assert.InDelta(t, 420, totals.Calories, 0.001)
	assert.InDelta(t, 16.5, totals.Protein, 0.001)
	assert.InDelta(t, 63.5, totals.Carbs, 0.001)
	assert.InDelta(t, 11.5, totals.Fat, 0.001)

	require.NoError(t, c.MoveItem("08:00", 1, 0))
	require.NoError(t, c.RemoveItem("08:00", 1))
	meal, ok := c.Meal("08:00")
	require.True(t, ok)
	require.Len(t, meal.Items, 1)
	assert.Equal(t, "Milk", meal.Items[0].FoodName)
	assert.Equal(t, float64(250), meal.Items[0].Quantity)
	assert.Equal(t, 0, meal.Items[0].OrderIndex)
}

func TestDietComposer_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := dietRepos(store)

	c := composer.NewDiet(repos, newDietPlan())
	require.NoError(t, c.AddMeal("13:00", "Lunch"))
	require.NoError(t, c.AddMeal("08:00", "Breakfast"))
	_, err := c.AddItem("13:00", domain.MealFood{FoodName: "Rice", Quantity: 150, Unit: "g"})
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx))

	meals, err := store.Meals().GetByPlanID(ctx, c.Plan().ID)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "Breakfast", meals[0].Name)
	assert.Equal(t, 0, meals[0].OrderIndex)
	assert.Equal(t, 1, meals[1].OrderIndex)

	loaded, err := composer.LoadDiet(ctx, repos, c.Plan().ID)
	require.NoError(t, err)
	require.NoError(t, loaded.AddMeal("10:30", "Snack"))
	loaded.RemoveMeal("08:00")
	require.NoError(t, loaded.Save(ctx))

	meals, err = store.Meals().GetByPlanID(ctx, c.Plan().ID)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "Snack", meals[0].Name)
	assert.Equal(t, 0, meals[0].OrderIndex)
	assert.Equal(t, "Lunch", meals[1].Name)
	assert.Equal(t, 1, meals[1].OrderIndex)

	lunch, _ := c.Meal("13:00")
	foods, err := store.MealFoods().GetByMealIDs(ctx, []primitive.ObjectID{lunch.ID})
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, lunch.Items[0].ID, foods[0].ID)
}

func TestDietComposer_SaveFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c := composer.NewDiet(dietRepos(store), newDietPlan())
	require.NoError(t, c.AddMeal("08:00", "Breakfast"))

	store.FailOn("meals.insert", "11000")
	err := c.Save(ctx)
	var perr *composer.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "11000", perr.Code)
	assert.Equal(t, "creating meal Breakfast", perr.Step)
	assert.True(t, c.Plan().ID.IsZero())

	plans, err := store.DietPlans().GetByStudentAndTrainerID(ctx, c.Plan().StudentID, c.Plan().TrainerID)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestDietComposer_SaveSurvivesTransactionRetry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := dietRepos(store)
	repos.Tx = commitRetryTx{store}

	c := composer.NewDiet(repos, newDietPlan())
	require.NoError(t, c.AddMeal("08:00", "Breakfast"))
	_, err := c.AddItem("08:00", domain.MealFood{FoodName: "Oats", Quantity: 80, Unit: "g"})
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx))

	plans, err := store.DietPlans().GetByStudentAndTrainerID(ctx, c.Plan().StudentID, c.Plan().TrainerID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, plans[0].ID, c.Plan().ID)

	meals, err := store.Meals().GetByPlanID(ctx, c.Plan().ID)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	breakfast, _ := c.Meal("08:00")
	assert.Equal(t, meals[0].ID, breakfast.ID)

	foods, err := store.MealFoods().GetByMealIDs(ctx, []primitive.ObjectID{breakfast.ID})
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, foods[0].ID, breakfast.Items[0].ID)
}

func TestDietComposer_UpdateItemRejectsNonFinite(t *testing.T) {
	c := composer.NewDiet(dietRepos(memory.NewStore()), newDietPlan())
	require.NoError(t, c.AddMeal("08:00", "Breakfast"))
	_, err := c.AddItem("08:00", domain.MealFood{FoodName: "Oats", Quantity: 80, Unit: "g"})
	require.NoError(t, err)

	assert.ErrorIs(t, c.UpdateItem("08:00", 0, composer.FieldQuantity, math.Inf(1)), composer.ErrInvalidValue)
	assert.ErrorIs(t, c.UpdateItem("08:00", 0, composer.FieldCalories, math.NaN()), composer.ErrInvalidValue)
	meal, _ := c.Meal("08:00")
	assert.Equal(t, float64(80), meal.Items[0].Quantity)
}
