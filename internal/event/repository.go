package event

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists events. FindByID returns (nil, nil) when nothing
// matches.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	List(ctx context.Context, f Filter) ([]*Event, int64, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{collection: db.Collection("events")}
}

func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "organizer", Value: 1}}},
	})
	return err
}

func (r *EventRepository) Create(ctx context.Context, e *Event) error {
	now := time.Now().UTC()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	e.CreatedAt, e.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, e)
	return err
}

func (r *EventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	var e Event
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func filterQuery(f Filter) bson.M {
	query := bson.M{}
	if f.Type != "" {
		query["type"] = f.Type
	}
	if f.StartDate != nil || f.EndDate != nil {
		date := bson.M{}
		if f.StartDate != nil {
			date["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			date["$lte"] = *f.EndDate
		}
		query["date"] = date
	}
	return query
}

func (r *EventRepository) List(ctx context.Context, f Filter) ([]*Event, int64, error) {
	query := filterQuery(f)
	p := f.Paging.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var events []*Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *EventRepository) Update(ctx context.Context, e *Event) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": e.ID}, bson.M{"$set": bson.M{
		"title":       e.Title,
		"description": e.Description,
		"date":        e.Date,
		"start_time":  e.StartTime,
		"end_time":    e.EndTime,
		"location":    e.Location,
		"type":        e.Type,
		"department":  e.Department,
		"attachments": e.Attachments,
		"updated_at":  e.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*EventRepository)(nil)
