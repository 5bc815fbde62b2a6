package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoStudentRepository struct {
	collection *mongo.Collection
}

func NewMongoStudentRepository(db *mongo.Database) repository.StudentRepository {
	return &mongoStudentRepository{
		collection: db.Collection(studentCollectionName),
	}
}

func (r *mongoStudentRepository) Create(ctx context.Context, student *domain.Student) (primitive.ObjectID, error) {
	student.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, student); err != nil {
		return primitive.NilObjectID, storeError("students.insert", err)
	}
	return student.ID, nil
}

func (r *mongoStudentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Student, error) {
	var student domain.Student
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&student); err != nil {
		return nil, storeError("students.find", err)
	}
	return &student, nil
}

// GetByAccessToken resolves a portal link. An empty token never matches.
func (r *mongoStudentRepository) GetByAccessToken(ctx context.Context, token string) (*domain.Student, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	var student domain.Student
	if err := r.collection.FindOne(ctx, bson.M{"accessToken": token}).Decode(&student); err != nil {
		return nil, storeError("students.find", err)
	}
	return &student, nil
}

func (r *mongoStudentRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID, onlyActive bool) ([]domain.Student, error) {
	filter := bson.M{"trainerId": trainerID}
	if onlyActive {
		filter["active"] = true
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, storeError("students.find", err)
	}
	defer cursor.Close(ctx)

	students := []domain.Student{}
	if err = cursor.All(ctx, &students); err != nil {
		return nil, storeError("students.find", err)
	}
	return students, nil
}

func (r *mongoStudentRepository) SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error {
	return r.set(ctx, id, trainerID, bson.M{"active": active})
}

func (r *mongoStudentRepository) SetAccessToken(ctx context.Context, id, trainerID primitive.ObjectID, token string) error {
	return r.set(ctx, id, trainerID, bson.M{"accessToken": token})
}

// set updates a student owned by trainerID; foreign students look missing.
func (r *mongoStudentRepository) set(ctx context.Context, id, trainerID primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "trainerId": trainerID},
		bson.M{"$set": fields},
	)
	if err != nil {
		return storeError("students.update", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func ensureStudentIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db.Collection(studentCollectionName), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "accessToken", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "active", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
	})
}
