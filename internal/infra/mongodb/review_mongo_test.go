package mongodb

import (
	"context"
	"testing"
	"time"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestReviewMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create", func(mt *mtest.T) {
		r := NewReviewRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := r.Create(ctx, model.Review{UserID: 1, BookID: 2, Rating: 5, Comment: "great"})
		require.NoError(mt, err)
		assert.False(mt, got.ID.IsZero())
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		r := NewReviewRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := r.Create(ctx, model.Review{UserID: 1, BookID: 2, Rating: 4})
		assert.ErrorIs(mt, err, repo.ErrDuplicate)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		r := NewReviewRepositoryFromCollection(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.reviews", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "user_id", Value: int64(1)},
			{Key: "book_id", Value: int64(2)},
			{Key: "rating", Value: 3},
			{Key: "comment", Value: "ok"},
			{Key: "created_at", Value: time.Now()},
		}))

		got, err := r.FindByID(ctx, id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), got.BookID)
		assert.Equal(mt, 3, got.Rating)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		r := NewReviewRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.reviews", mtest.FirstBatch))

		_, err := r.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, repo.ErrNotFound)
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		r := NewReviewRepositoryFromCollection(mt.Coll)

		_, err := r.FindByID(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, repo.ErrNotFound)
		assert.ErrorIs(mt, r.Delete(ctx, "zzz"), repo.ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		r := NewReviewRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})
		assert.NoError(mt, r.Delete(ctx, primitive.NewObjectID().Hex()))

		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})
		assert.ErrorIs(mt, r.Delete(ctx, primitive.NewObjectID().Hex()), repo.ErrNotFound)
	})
}
