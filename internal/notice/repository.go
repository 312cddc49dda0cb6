package notice

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists notices. FindByID returns (nil, nil) when nothing
// matches.
type Repository interface {
	Create(ctx context.Context, n *Notice) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Notice, error)
	List(ctx context.Context, f Filter) ([]*Notice, int64, error)
	Update(ctx context.Context, n *Notice) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type NoticeRepository struct {
	collection *mongo.Collection
}

func NewNoticeRepository(db *mongo.Database) *NoticeRepository {
	return &NoticeRepository{collection: db.Collection("notices")}
}

func (r *NoticeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
	})
	return err
}

func (r *NoticeRepository) Create(ctx context.Context, n *Notice) error {
	now := time.Now().UTC()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.CreatedAt, n.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, n)
	return err
}

func (r *NoticeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Notice, error) {
	var n Notice
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *NoticeRepository) List(ctx context.Context, f Filter) ([]*Notice, int64, error) {
	query := bson.M{}
	if f.Type != "" {
		query["type"] = f.Type
	}
	p := f.Paging.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var notices []*Notice
	if err := cursor.All(ctx, &notices); err != nil {
		return nil, 0, err
	}
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return notices, total, nil
}

func (r *NoticeRepository) Update(ctx context.Context, n *Notice) error {
	n.UpdatedAt = time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": n.ID}, bson.M{"$set": bson.M{
		"title":       n.Title,
		"content":     n.Content,
		"type":        n.Type,
		"department":  n.Department,
		"attachments": n.Attachments,
		"updated_at":  n.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NoticeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*NoticeRepository)(nil)
