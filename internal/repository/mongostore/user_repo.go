package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/noteai/internal/errs"
	"github.com/and161185/noteai/internal/model"
	"github.com/gofrs/uuid/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserRepo implements UserRepository on the users collection.
type UserRepo struct{ coll collection }

// NewUserRepo constructs a user repository.
func NewUserRepo(s *Store) *UserRepo { return &UserRepo{coll: s.users} }

// Create inserts a new user document with an empty notes array.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.coll.InsertOne(ctx, fromUser(u))
	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID loads a user by ID without their notes.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

// GetByEmail loads a user by email without their notes.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "notes", Value: 0}})
	var d userDoc
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return d.toModel()
}

// SetRefreshToken overwrites the stored refresh token; an empty token clears it.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		setRefresh(token),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SwapRefreshToken replaces the stored refresh token only if it still equals old.
// The filter-and-set is a single document write, so concurrent swaps are serialized by the server.
func (r *UserRepo) SwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	if old == "" {
		return errs.ErrVersionConflict
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id.String()}, {Key: "refreshToken", Value: old}},
		setRefresh(next),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrVersionConflict
	}
	return nil
}

// Delete removes the user document, embedded notes included.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func setRefresh(token string) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "refreshToken", Value: token},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
}
