package mongo

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCompletionRepository is the append-only ledger. It exposes no update
// or delete.
type mongoCompletionRepository struct {
	collection *mongo.Collection
}

func NewMongoCompletionRepository(db *mongo.Database) repository.CompletionRepository {
	return &mongoCompletionRepository{
		collection: db.Collection(completionCollectionName),
	}
}

func (r *mongoCompletionRepository) Append(ctx context.Context, event *domain.CompletionEvent) (primitive.ObjectID, error) {
	event.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return primitive.NilObjectID, storeError("completions.insert", err)
	}
	return event.ID, nil
}

func completionFilter(f repository.CompletionFilter) bson.M {
	filter := bson.M{
		"studentId":   f.StudentID,
		"completedAt": bson.M{"$gte": f.From, "$lt": f.To},
	}
	if f.ItemID != nil {
		filter["itemId"] = *f.ItemID
	}
	if f.Kind != nil {
		filter["kind"] = *f.Kind
	}
	return filter
}

// List returns matching events oldest first.
func (r *mongoCompletionRepository) List(ctx context.Context, filter repository.CompletionFilter) ([]domain.CompletionEvent, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, completionFilter(filter), findOptions)
	if err != nil {
		return nil, storeError("completions.find", err)
	}
	defer cursor.Close(ctx)

	events := []domain.CompletionEvent{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, storeError("completions.find", err)
	}
	return events, nil
}

func (r *mongoCompletionRepository) Count(ctx context.Context, filter repository.CompletionFilter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, completionFilter(filter))
	if err != nil {
		return 0, storeError("completions.count", err)
	}
	return n, nil
}

func ensureCompletionIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db.Collection(completionCollectionName), []mongo.IndexModel{
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "completedAt", Value: 1}}},
		{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "itemId", Value: 1}, {Key: "completedAt", Value: 1}}},
	})
}
