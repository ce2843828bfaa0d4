package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// レビューはMongoDBに保存する（reviewsコレクション）
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    int64              `bson:"user_id" json:"user_id"`
	UserName  string             `bson:"user_name" json:"user_name"`
	BookID    int64              `bson:"book_id" json:"book_id"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
