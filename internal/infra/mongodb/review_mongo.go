package mongodb

import (
	"context"
	"errors"
	"fmt"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewMongoRepository struct {
	coll *mongo.Collection
}

func NewReviewMongoRepository(db *mongo.Database) repo.ReviewRepository {
	return NewReviewRepositoryFromCollection(db.Collection(ReviewsCollection))
}

func NewReviewRepositoryFromCollection(coll *mongo.Collection) repo.ReviewRepository {
	return &reviewMongoRepository{coll: coll}
}

// 1ユーザー1書籍1レビュー
func EnsureReviewIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ReviewsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "book_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_book"),
		},
		{
			Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create review indexes: %w", err)
	}
	return nil
}

func (r *reviewMongoRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, rv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Review{}, repo.ErrDuplicate
		}
		return model.Review{}, err
	}
	return rv, nil
}

// 新しい順
func (r *reviewMongoRepository) ListByBookID(ctx context.Context, bookID int64, page int, limit int) ([]model.Review, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	filter := bson.M{"book_id": bookID}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	reviews := []model.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewMongoRepository) FindByID(ctx context.Context, id string) (model.Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Review{}, repo.ErrNotFound
	}
	var rv model.Review
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *reviewMongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repo.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
