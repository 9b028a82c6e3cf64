package circles

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository provides circle post persistence
type Repository interface {
	Insert(ctx context.Context, p *Post) error
	ListByCircle(ctx context.Context, circleID string, before time.Time, limit int) ([]*Post, error)
}

// MongoRepository implements Repository over the circle_posts collection
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, p *Post) error {
	_, err := r.col.InsertOne(ctx, p)
	return err
}

// ListByCircle returns up to limit posts for the circle, newest first,
// restricted to createdAt strictly before the cursor when one is given.
func (r *MongoRepository) ListByCircle(ctx context.Context, circleID string, before time.Time, limit int) ([]*Post, error) {
	filter := bson.M{"circleId": circleID}
	if !before.IsZero() {
		filter["createdAt"] = bson.M{"$lt": before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*Post{}
	for cur.Next(ctx) {
		var p Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}
