package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// 定義済みのロールか
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(50);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	TokenVersion int    `gorm:"not null;default:0" json:"token_version"`

	IsEmailVerified bool `gorm:"not null;default:false" json:"is_email_verified"`

	//メール確認トークン（hashのみ保存）
	EmailVerificationTokenHash *string    `gorm:"type:varchar(64);index" json:"-"`
	EmailVerificationExpiry    *time.Time `json:"-"`

	//パスワード再設定トークン（hashのみ保存）
	ForgotPasswordTokenHash *string    `gorm:"type:varchar(64);index" json:"-"`
	ForgotPasswordExpiry    *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}
