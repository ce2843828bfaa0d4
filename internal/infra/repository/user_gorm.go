package repository

import (
	"context"
	"time"

	"bookbazar/internal/domain/model"
	domainrepo "bookbazar/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *userGormRepository) first(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if isNotFound(err) {
		return nil, domainrepo.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userGormRepository) FindByEmailVerificationTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.first(ctx, "email_verification_token_hash = ? AND email_verification_expiry > ?", tokenHash, now)
}

func (r *userGormRepository) FindByForgotPasswordTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.first(ctx, "forgot_password_token_hash = ? AND forgot_password_expiry > ?", tokenHash, now)
}

func (r *userGormRepository) updateColumns(ctx context.Context, userID int64, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumns(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userGormRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{
		"last_login_at": at,
		"updated_at":    at,
	})
}

// 再発行すると前のトークンは使えなくなる
func (r *userGormRepository) SetEmailVerificationToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{
		"email_verification_token_hash": tokenHash,
		"email_verification_expiry":     expiresAt,
	})
}

func (r *userGormRepository) SetForgotPasswordToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{
		"forgot_password_token_hash": tokenHash,
		"forgot_password_expiry":     expiresAt,
	})
}

// hashと期限の条件付き更新なので、2回目は0件になる
func (r *userGormRepository) ConsumeEmailVerificationToken(ctx context.Context, userID int64, tokenHash string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND email_verification_token_hash = ? AND email_verification_expiry > ?", userID, tokenHash, now).
		Updates(map[string]interface{}{
			"is_email_verified":             true,
			"email_verification_token_hash": nil,
			"email_verification_expiry":     nil,
			"updated_at":                    now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// パスワード更新と同時にtoken_versionを上げて既存のアクセストークンを無効にする
func (r *userGormRepository) ConsumeForgotPasswordToken(ctx context.Context, userID int64, tokenHash string, newPasswordHash string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND forgot_password_token_hash = ? AND forgot_password_expiry > ?", userID, tokenHash, now).
		Updates(map[string]interface{}{
			"password_hash":              newPasswordHash,
			"forgot_password_token_hash": nil,
			"forgot_password_expiry":     nil,
			"token_version":              gorm.Expr("token_version + ?", 1),
			"updated_at":                 now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userGormRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"token_version": gorm.Expr("token_version + ?", 1),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

// token_versionを+1 します。
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}
