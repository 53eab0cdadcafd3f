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

// NoteRepo implements NoteRepository on the notes array embedded in user documents.
type NoteRepo struct{ coll collection }

// NewNoteRepo constructs a note repository.
func NewNoteRepo(s *Store) *NoteRepo { return &NoteRepo{coll: s.users} }

// Create appends a note to the owner's notes array.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: n.UserID.String()}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "notes", Value: fromNote(n)}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// List returns the embedded notes in insertion order.
func (r *NoteRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Note, error) {
	docs, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Note, 0, len(docs))
	for _, d := range docs {
		n, err := d.toModel(userID)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Get returns a single embedded note.
func (r *NoteRepo) Get(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	docs, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID == noteID.String() {
			n, err := d.toModel(userID)
			if err != nil {
				return nil, err
			}
			return &n, nil
		}
	}
	return nil, errs.ErrNotFound
}

// Update applies patch to a note and pushes the replaced values onto its history.
// The write matches on the updatedAt that was read, so an edit that raced with another
// returns errs.ErrVersionConflict instead of recording a stale snapshot.
func (r *NoteRepo) Update(ctx context.Context, userID, noteID uuid.UUID, patch model.NotePatch) (*model.Note, error) {
	cur, err := r.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	title, content := cur.Title, cur.Content
	if patch.Title != nil {
		title = *patch.Title
	}
	if patch.Content != nil {
		content = *patch.Content
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.D{
		{Key: "_id", Value: userID.String()},
		{Key: "notes", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "_id", Value: noteID.String()},
			{Key: "updatedAt", Value: cur.UpdatedAt.UTC()},
		}}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "notes.$.title", Value: title},
			{Key: "notes.$.content", Value: content},
			{Key: "notes.$.updatedAt", Value: now},
		}},
		{Key: "$push", Value: bson.D{
			{Key: "notes.$.history", Value: revisionDoc{Title: cur.Title, Content: cur.Content, EditedAt: now}},
		}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, errs.ErrVersionConflict
	}

	cur.History = append(cur.History, model.Revision{Title: cur.Title, Content: cur.Content, EditedAt: now})
	cur.Title, cur.Content, cur.UpdatedAt = title, content, now
	return cur, nil
}

// Delete pulls a note out of the owner's notes array.
func (r *NoteRepo) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID.String()}, {Key: "notes._id", Value: noteID.String()}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "notes", Value: bson.D{{Key: "_id", Value: noteID.String()}}}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *NoteRepo) load(ctx context.Context, userID uuid.UUID) ([]noteDoc, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "notes", Value: 1}})
	var d struct {
		Notes []noteDoc `bson:"notes"`
	}
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: userID.String()}}, opts).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return d.Notes, nil
}
