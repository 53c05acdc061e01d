package media

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrRecordNotFound = errors.New("media record not found")

type Repository interface {
	Insert(ctx context.Context, record MediaRecord) (primitive.ObjectID, error)
	Update(ctx context.Context, record MediaRecord) error
	FindByID(ctx context.Context, id primitive.ObjectID) (MediaRecord, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	Find(ctx context.Context, filter SearchFilter) ([]MediaRecord, error)
	Count(ctx context.Context, filter SearchFilter) (int64, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(collection *mongo.Collection) Repository {
	return &mongoRepository{
		collection: collection,
	}
}

func (r *mongoRepository) Insert(ctx context.Context, record MediaRecord) (primitive.ObjectID, error) {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected insert id type")
	}
	return id, nil
}

func (r *mongoRepository) Update(ctx context.Context, record MediaRecord) error {
	record.UpdatedAt = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (MediaRecord, error) {
	var record MediaRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return MediaRecord{}, ErrRecordNotFound
		}
		return MediaRecord{}, err
	}
	return record, nil
}

func (r *mongoRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *mongoRepository) Find(ctx context.Context, filter SearchFilter) ([]MediaRecord, error) {
	cur, err := r.collection.Find(ctx, filter.BuildQuery(), filter.FindOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []MediaRecord
	for cur.Next(ctx) {
		var record MediaRecord
		if err := cur.Decode(&record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *mongoRepository) Count(ctx context.Context, filter SearchFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, filter.BuildQuery())
}
