package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaikhari/vaikhari/backend/api/internal/models"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetRoles(ctx context.Context, uid string, roles []models.Role) (*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// Upsert inserts or refreshes the user document keyed by uid in a single
// atomic FindOneAndUpdate, so two concurrent first logins cannot race between
// "not found" and "insert". Roles and createdAt are written only on insert.
func (r *MongoUserRepository) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()

	filter := bson.M{"_id": u.UID}
	update := bson.M{
		"$set": bson.M{
			"email":       u.Email,
			"phone":       u.Phone,
			"displayName": u.DisplayName,
			"photoURL":    u.PhotoURL,
			"mfaEnrolled": u.MFAEnrolled,
			"lastLoginAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
			"roles":     []models.Role{models.RoleUser},
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Shouldn't happen because of upsert, but handle gracefully
			return nil, ErrUpsertFailed
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// SetRoles overwrites the full role set for uid and returns the updated
// document, or nil when no such user exists.
func (r *MongoUserRepository) SetRoles(ctx context.Context, uid string, roles []models.Role) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"roles": roles}}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}
