package repository

import (
	"context"
	"time"

	"bookbazar/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（メール重複はErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	// 見つからなければErrUserNotFound
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 有効期限内のトークンhashで検索
	FindByEmailVerificationTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	FindByForgotPasswordTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)

	// 列単位で更新する（行全体は書き戻さない）
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	SetEmailVerificationToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	SetForgotPasswordToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error

	// hashが一致し期限内のときだけ消費する（1回限り）
	ConsumeEmailVerificationToken(ctx context.Context, userID int64, tokenHash string, now time.Time) (bool, error)
	ConsumeForgotPasswordToken(ctx context.Context, userID int64, tokenHash string, newPasswordHash string, now time.Time) (bool, error)

	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
