// internal/repository/mongo/workout_repo.go
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

// mongoWorkoutPlanRepository implements repository.WorkoutPlanRepository
type mongoWorkoutPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{
		collection: db.Collection(workoutPlanCollectionName),
	}
}

// Create inserts a new workout plan.
func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.TrainerID.IsZero() || plan.StudentID.IsZero() || plan.Name == "" {
		return primitive.NilObjectID, errors.New("workout plan requires trainerId, studentId, and name")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		return primitive.NilObjectID, storeError("workout_plans.insert", err)
	}
	return plan.ID, nil
}

func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return nil, storeError("workout_plans.find", err)
	}
	return &plan, nil
}

func (r *mongoWorkoutPlanRepository) GetByStudentAndTrainerID(ctx context.Context, studentID, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{"studentId": studentID, "trainerId": trainerID})
}

func (r *mongoWorkoutPlanRepository) GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{"studentId": studentID, "active": true})
}

func (r *mongoWorkoutPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.WorkoutPlan, error) {
	// newest first
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, storeError("workout_plans.find", err)
	}
	defer cursor.Close(ctx)

	plans := []domain.WorkoutPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, storeError("workout_plans.find", err)
	}
	return plans, nil
}

// Update rewrites the plan header. Owner and student never change.
func (r *mongoWorkoutPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.ID.IsZero() {
		return errors.New("workout plan ID is required for update")
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, bson.M{
		"$set": bson.M{
			"name":             plan.Name,
			"description":      plan.Description,
			"active":           plan.Active,
			"frequencyPerWeek": plan.FrequencyPerWeek,
			"durationWeeks":    plan.DurationWeeks,
			"updatedAt":        time.Now().UTC(),
		},
	})
	if err != nil {
		return storeError("workout_plans.update", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWorkoutPlanRepository) SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "trainerId": trainerID},
		bson.M{"$set": bson.M{"active": active, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return storeError("workout_plans.update", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type mongoWorkoutSessionRepository struct {
	collection *mongo.Collection
	exercises  *mongo.Collection
}

func NewMongoWorkoutSessionRepository(db *mongo.Database) repository.WorkoutSessionRepository {
	return &mongoWorkoutSessionRepository{
		collection: db.Collection(workoutSessionCollectionName),
		exercises:  db.Collection(workoutExerciseCollectionName),
	}
}

// Create inserts a session. The unique {planId, dayOfWeek} index rejects a
// second session on the same day.
func (r *mongoWorkoutSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return primitive.NilObjectID, storeError("workout_sessions.insert", err)
	}
	return session.ID, nil
}

func (r *mongoWorkoutSessionRepository) Update(ctx context.Context, session *domain.WorkoutSession) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, bson.M{
		"$set": bson.M{"name": session.Name, "dayOfWeek": session.DayOfWeek},
	})
	if err != nil {
		return storeError("workout_sessions.update", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWorkoutSessionRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "dayOfWeek", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, findOptions)
	if err != nil {
		return nil, storeError("workout_sessions.find", err)
	}
	defer cursor.Close(ctx)

	sessions := []domain.WorkoutSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, storeError("workout_sessions.find", err)
	}
	return sessions, nil
}

// Delete removes the sessions of planID listed in ids along with their items.
func (r *mongoWorkoutSessionRepository) Delete(ctx context.Context, planID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.exercises.DeleteMany(ctx, bson.M{"sessionId": bson.M{"$in": ids}}); err != nil {
		return storeError("workout_exercises.delete", err)
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID, "_id": bson.M{"$in": ids}}); err != nil {
		return storeError("workout_sessions.delete", err)
	}
	return nil
}

type mongoWorkoutExerciseRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutExerciseRepository(db *mongo.Database) repository.WorkoutExerciseRepository {
	return &mongoWorkoutExerciseRepository{
		collection: db.Collection(workoutExerciseCollectionName),
	}
}

// InsertMany stores items, keeping IDs that are already set so completions
// recorded against them stay attached.
func (r *mongoWorkoutExerciseRepository) InsertMany(ctx context.Context, items []domain.WorkoutExercise) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, len(items))
	for i := range items {
		if items[i].ID.IsZero() {
			items[i].ID = primitive.NewObjectID()
		}
		docs[i] = items[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return storeError("workout_exercises.insert", err)
	}
	return nil
}

func (r *mongoWorkoutExerciseRepository) DeleteBySessionID(ctx context.Context, sessionID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID}); err != nil {
		return storeError("workout_exercises.delete", err)
	}
	return nil
}

func (r *mongoWorkoutExerciseRepository) GetBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	if len(sessionIDs) == 0 {
		return []domain.WorkoutExercise{}, nil
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "sessionId", Value: 1}, {Key: "orderIndex", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": bson.M{"$in": sessionIDs}}, findOptions)
	if err != nil {
		return nil, storeError("workout_exercises.find", err)
	}
	defer cursor.Close(ctx)

	items := []domain.WorkoutExercise{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, storeError("workout_exercises.find", err)
	}
	return items, nil
}

func ensureWorkoutIndexes(ctx context.Context, db *mongo.Database) error {
	if err := createIndexes(ctx, db.Collection(workoutPlanCollectionName), []mongo.IndexModel{
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "trainerId", Value: 1}}},
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "active", Value: 1}}},
	}); err != nil {
		return err
	}
	if err := createIndexes(ctx, db.Collection(workoutSessionCollectionName), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "dayOfWeek", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return err
	}
	return createIndexes(ctx, db.Collection(workoutExerciseCollectionName), []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "orderIndex", Value: 1}}},
	})
}
