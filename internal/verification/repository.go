package verification

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists approval requests. Lookups return (nil, nil) when
// nothing matches.
type Repository interface {
	// CreateIfAbsent inserts req unless a request for the same faculty exists
	// and reports whether it inserted.
	CreateIfAbsent(ctx context.Context, req *Request) (bool, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Request, error)
	FindByFaculty(ctx context.Context, facultyID primitive.ObjectID) (*Request, error)
	ListPending(ctx context.Context) ([]*Request, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByFaculty(ctx context.Context, facultyID primitive.ObjectID) error
}

type RequestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{collection: db.Collection("verification_requests")}
}

// EnsureIndexes keeps at most one request per faculty member.
func (r *RequestRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "faculty", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *RequestRepository) CreateIfAbsent(ctx context.Context, req *Request) (bool, error) {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"faculty": req.FacultyID},
		bson.M{"$setOnInsert": req},
		options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (r *RequestRepository) findOne(ctx context.Context, filter bson.M) (*Request, error) {
	var req Request
	err := r.collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Request, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RequestRepository) FindByFaculty(ctx context.Context, facultyID primitive.ObjectID) (*Request, error) {
	return r.findOne(ctx, bson.M{"faculty": facultyID})
}

func (r *RequestRepository) ListPending(ctx context.Context) ([]*Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": StatusPending}, opts)
	if err != nil {
		return nil, err
	}
	var requests []*Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RequestRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) DeleteByFaculty(ctx context.Context, facultyID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"faculty": facultyID})
	return err
}

var _ Repository = (*RequestRepository)(nil)
