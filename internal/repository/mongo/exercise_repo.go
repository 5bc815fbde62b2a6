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

// MongoCatalogRepository implements repository.CatalogRepository over the
// categories and exercises collections.
type MongoCatalogRepository struct {
	categories *mongo.Collection
	exercises  *mongo.Collection
}

var _ repository.CatalogRepository = (*MongoCatalogRepository)(nil)

// NewMongoCatalogRepository creates a new catalog repository backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{
		categories: db.Collection(categoryCollectionName),
		exercises:  db.Collection(exerciseCollectionName),
	}
}

// visibleTo matches global entries (no trainerId) and the trainer's own.
func visibleTo(trainerID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"trainerId": bson.M{"$exists": false}},
		bson.M{"trainerId": nil},
		bson.M{"trainerId": trainerID},
	}}
}

// CreateCategory inserts a category. A nil TrainerID makes it global.
func (r *MongoCatalogRepository) CreateCategory(ctx context.Context, category *domain.Category) (primitive.ObjectID, error) {
	if category.Name == "" {
		return primitive.NilObjectID, errors.New("category name is required")
	}
	category.ID = primitive.NewObjectID()
	if _, err := r.categories.InsertOne(ctx, category); err != nil {
		return primitive.NilObjectID, storeError("categories.insert", err)
	}
	return category.ID, nil
}

func (r *MongoCatalogRepository) ListCategories(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Category, error) {
	cursor, err := r.categories.Find(ctx, visibleTo(trainerID), options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, storeError("categories.find", err)
	}
	defer cursor.Close(ctx)

	categories := []domain.Category{}
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, storeError("categories.find", err)
	}
	return categories, nil
}

func (r *MongoCatalogRepository) ListExercises(ctx context.Context, trainerID primitive.ObjectID, categoryID *primitive.ObjectID) ([]domain.Exercise, error) {
	filter := visibleTo(trainerID)
	if categoryID != nil {
		filter["categoryId"] = *categoryID
	}
	return r.findExercises(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// CreateExercise inserts a new exercise into the database.
func (r *MongoCatalogRepository) CreateExercise(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.CategoryID.IsZero() {
		return primitive.NilObjectID, errors.New("exercise name and category ID are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	if _, err := r.exercises.InsertOne(ctx, exercise); err != nil {
		return primitive.NilObjectID, storeError("exercises.insert", err)
	}
	return exercise.ID, nil
}

// GetExercise retrieves an exercise by its ID.
func (r *MongoCatalogRepository) GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	if err := r.exercises.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise); err != nil {
		return nil, storeError("exercises.find", err)
	}
	return &exercise, nil
}

// GetExercisesByIDs returns the exercises found among ids; missing ids are skipped.
func (r *MongoCatalogRepository) GetExercisesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	if len(ids) == 0 {
		return []domain.Exercise{}, nil
	}
	return r.findExercises(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoCatalogRepository) findExercises(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.Exercise, error) {
	cursor, err := r.exercises.Find(ctx, filter, opts...)
	if err != nil {
		return nil, storeError("exercises.find", err)
	}
	defer cursor.Close(ctx)

	exercises := []domain.Exercise{}
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, storeError("exercises.find", err)
	}
	return exercises, nil
}

func ensureCatalogIndexes(ctx context.Context, db *mongo.Database) error {
	if err := createIndexes(ctx, db.Collection(categoryCollectionName), []mongo.IndexModel{
		{Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "name", Value: 1}}},
	}); err != nil {
		return err
	}
	return createIndexes(ctx, db.Collection(exerciseCollectionName), []mongo.IndexModel{
		{Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "categoryId", Value: 1}, {Key: "name", Value: 1}}},
	})
}
