package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ユーザーが見つかりませんを統一
	ErrUserNotFound = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// 一意制約違反（メール重複、レビュー重複など）
	ErrDuplicate = errors.New("duplicate")
)
