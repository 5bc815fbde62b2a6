package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDietPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoDietPlanRepository(db *mongo.Database) repository.DietPlanRepository {
	return &mongoDietPlanRepository{
		collection: db.Collection(dietPlanCollectionName),
	}
}

func (r *mongoDietPlanRepository) Create(ctx context.Context, plan *domain.DietPlan) (primitive.ObjectID, error) {
	if plan.TrainerID.IsZero() || plan.StudentID.IsZero() || plan.Name == "" {
		return primitive.NilObjectID, errors.New("diet plan requires trainerId, studentId, and name")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		return primitive.NilObjectID, storeError("diet_plans.insert", err)
	}
	return plan.ID, nil
}

func (r *mongoDietPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlan, error) {
	var plan domain.DietPlan
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return nil, storeError("diet_plans.find", err)
	}
	return &plan, nil
}

func (r *mongoDietPlanRepository) GetByStudentAndTrainerID(ctx context.Context, studentID, trainerID primitive.ObjectID) ([]domain.DietPlan, error) {
	return r.find(ctx, bson.M{"studentId": studentID, "trainerId": trainerID})
}

func (r *mongoDietPlanRepository) GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.DietPlan, error) {
	return r.find(ctx, bson.M{"studentId": studentID, "active": true})
}

func (r *mongoDietPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.DietPlan, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, storeError("diet_plans.find", err)
	}
	defer cursor.Close(ctx)

	plans := []domain.DietPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, storeError("diet_plans.find", err)
	}
	return plans, nil
}

func (r *mongoDietPlanRepository) Update(ctx context.Context, plan *domain.DietPlan) error {
	if plan.ID.IsZero() {
		return errors.New("diet plan ID is required for update")
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, bson.M{
		"$set": bson.M{
			"name":          plan.Name,
			"description":   plan.Description,
			"active":        plan.Active,
			"dailyCalories": plan.DailyCalories,
			"dailyProtein":  plan.DailyProtein,
			"dailyCarbs":    plan.DailyCarbs,
			"dailyFat":      plan.DailyFat,
			"updatedAt":     time.Now().UTC(),
		},
	})
	if err != nil {
		return storeError("diet_plans.update", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoDietPlanRepository) SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "trainerId": trainerID},
		bson.M{"$set": bson.M{"active": active, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return storeError("diet_plans.update", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type mongoMealRepository struct {
	collection *mongo.Collection
	foods      *mongo.Collection
}

func NewMongoMealRepository(db *mongo.Database) repository.MealRepository {
	return &mongoMealRepository{
		collection: db.Collection(mealCollectionName),
		foods:      db.Collection(mealFoodCollectionName),
	}
}

// Create inserts a meal; {planId, timeOfDay} is unique.
func (r *mongoMealRepository) Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error) {
	meal.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, meal); err != nil {
		return primitive.NilObjectID, storeError("meals.insert", err)
	}
	return meal.ID, nil
}

func (r *mongoMealRepository) Update(ctx context.Context, meal *domain.Meal) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": meal.ID}, bson.M{
		"$set": bson.M{"name": meal.Name, "timeOfDay": meal.TimeOfDay, "orderIndex": meal.OrderIndex},
	})
	if err != nil {
		return storeError("meals.update", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoMealRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.Meal, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}}))
	if err != nil {
		return nil, storeError("meals.find", err)
	}
	defer cursor.Close(ctx)

	meals := []domain.Meal{}
	if err = cursor.All(ctx, &meals); err != nil {
		return nil, storeError("meals.find", err)
	}
	return meals, nil
}

// Delete removes the meals of planID listed in ids along with their foods.
func (r *mongoMealRepository) Delete(ctx context.Context, planID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.foods.DeleteMany(ctx, bson.M{"mealId": bson.M{"$in": ids}}); err != nil {
		return storeError("meal_foods.delete", err)
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID, "_id": bson.M{"$in": ids}}); err != nil {
		return storeError("meals.delete", err)
	}
	return nil
}

type mongoMealFoodRepository struct {
	collection *mongo.Collection
}

func NewMongoMealFoodRepository(db *mongo.Database) repository.MealFoodRepository {
	return &mongoMealFoodRepository{
		collection: db.Collection(mealFoodCollectionName),
	}
}

func (r *mongoMealFoodRepository) InsertMany(ctx context.Context, foods []domain.MealFood) error {
	if len(foods) == 0 {
		return nil
	}
	docs := make([]interface{}, len(foods))
	for i := range foods {
		if foods[i].ID.IsZero() {
			foods[i].ID = primitive.NewObjectID()
		}
		docs[i] = foods[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return storeError("meal_foods.insert", err)
	}
	return nil
}

func (r *mongoMealFoodRepository) DeleteByMealID(ctx context.Context, mealID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"mealId": mealID}); err != nil {
		return storeError("meal_foods.delete", err)
	}
	return nil
}

func (r *mongoMealFoodRepository) GetByMealIDs(ctx context.Context, mealIDs []primitive.ObjectID) ([]domain.MealFood, error) {
	if len(mealIDs) == 0 {
		return []domain.MealFood{}, nil
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "mealId", Value: 1}, {Key: "orderIndex", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"mealId": bson.M{"$in": mealIDs}}, findOptions)
	if err != nil {
		return nil, storeError("meal_foods.find", err)
	}
	defer cursor.Close(ctx)

	foods := []domain.MealFood{}
	if err = cursor.All(ctx, &foods); err != nil {
		return nil, storeError("meal_foods.find", err)
	}
	return foods, nil
}

func ensureDietIndexes(ctx context.Context, db *mongo.Database) error {
	if err := createIndexes(ctx, db.Collection(dietPlanCollectionName), []mongo.IndexModel{
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "trainerId", Value: 1}}},
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "active", Value: 1}}},
	}); err != nil {
		return err
	}
	if err := createIndexes(ctx, db.Collection(mealCollectionName), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "timeOfDay", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return err
	}
	return createIndexes(ctx, db.Collection(mealFoodCollectionName), []mongo.IndexModel{
		{Keys: bson.D{{Key: "mealId", Value: 1}, {Key: "orderIndex", Value: 1}}},
	})
}
