package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DietPlan is a nutrition program with optional daily macro targets.
type DietPlan struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID     primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	StudentID     primitive.ObjectID `bson:"studentId" json:"studentId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Active        bool               `bson:"active" json:"active"`
	DailyCalories *int               `bson:"dailyCalories,omitempty" json:"dailyCalories,omitempty"`
	DailyProtein  *float64           `bson:"dailyProtein,omitempty" json:"dailyProtein,omitempty"`
	DailyCarbs    *float64           `bson:"dailyCarbs,omitempty" json:"dailyCarbs,omitempty"`
	DailyFat      *float64           `bson:"dailyFat,omitempty" json:"dailyFat,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Meal is a meal slot of a diet plan. TimeOfDay ("HH:MM") is the slot key and
// OrderIndex follows the chronological order of the meals.
type Meal struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID     primitive.ObjectID `bson:"planId" json:"planId"`
	Name       string             `bson:"name" json:"name"`
	TimeOfDay  string             `bson:"timeOfDay" json:"timeOfDay"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
}

// MealFood is a free-text food entry inside a meal.
type MealFood struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MealID     primitive.ObjectID `bson:"mealId" json:"mealId"`
	FoodName   string             `bson:"foodName" json:"foodName"`
	Quantity   float64            `bson:"quantity" json:"quantity"`
	Unit       string             `bson:"unit" json:"unit"`
	Calories   float64            `bson:"calories" json:"calories"`
	Protein    float64            `bson:"protein" json:"protein"`
	Carbs      float64            `bson:"carbs" json:"carbs"`
	Fat        float64            `bson:"fat" json:"fat"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
}

// Macros is a calories/protein/carbs/fat tuple.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (m Macros) Add(f MealFood) Macros {
	return Macros{
		Calories: m.Calories + f.Calories,
		Protein:  m.Protein + f.Protein,
		Carbs:    m.Carbs + f.Carbs,
		Fat:      m.Fat + f.Fat,
	}
}
