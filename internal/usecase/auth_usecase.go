package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookbazar/internal/domain/model"
	"bookbazar/internal/repository"
	auth "bookbazar/internal/usecase/auth_usecase"

	"github.com/labstack/gommon/log"
)

var errInvalidToken = NewHTTPError(http.StatusBadRequest, "token is invalid or expired")

type UserDTO struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            model.Role `json:"role"`
	IsEmailVerified bool       `json:"is_email_verified"`
	TokenVersion    int        `json:"token_version"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// handlerがCookieに詰める値も持つ
type LoginResult struct {
	User              UserDTO           `json:"user"`
	Token             JwtAccessTokenDTO `json:"token"`
	RefreshTokenPlain string            `json:"refresh_token"`
	RefreshExpiresAt  time.Time         `json:"-"`
}

type ForceLogoutResult struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	users      repository.UserRepository
	rtRepo     repository.RefreshTokenRepository
	auditRepo  repository.AuditLogRepository
	hasher     auth.PasswordHasher
	verifier   auth.PasswordVerifier
	issuer     auth.AccessTokenIssuer
	idGen      auth.IDGenerator
	clock      auth.Clock
	mailer     Mailer
	refreshTTL time.Duration
}

// DI
func NewAuthUsecase(
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	auditRepo repository.AuditLogRepository,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	issuer auth.AccessTokenIssuer,
	idGen auth.IDGenerator,
	clock auth.Clock,
	mailer Mailer,
	refreshTTL time.Duration,
) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		rtRepo:     rtRepo,
		auditRepo:  auditRepo,
		hasher:     hasher,
		verifier:   verifier,
		issuer:     issuer,
		idGen:      idGen,
		clock:      clock,
		mailer:     mailer,
		refreshTTL: refreshTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserDTO, error) {
	//パスワードは必ずハッシュ化して保存
	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return UserDTO{}, errInternal
	}

	now := u.clock.Now()
	tk, err := auth.NewTemporaryToken(now)
	if err != nil {
		return UserDTO{}, errInternal
	}

	user := &model.User{
		Name:                       strings.TrimSpace(in.Name),
		Email:                      normalizeEmail(in.Email),
		PasswordHash:               pwHash,
		Role:                       model.RoleUser,
		EmailVerificationTokenHash: &tk.Hash,
		EmailVerificationExpiry:    &tk.ExpiresAt,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return UserDTO{}, NewHTTPError(http.StatusConflict, "email already registered")
		}
		return UserDTO{}, errDB
	}

	if err := u.mailer.SendVerificationEmail(ctx, user.Email, user.Name, tk.Plain); err != nil {
		log.Warnf("send verification email user_id=%d: %v", user.ID, err)
	}

	return toUserDTO(user), nil
}

// 1回だけ使える（2回目はhashが消えているので失敗）
func (u *AuthUsecase) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return errInvalidToken
	}
	now := u.clock.Now()
	hash := auth.HashToken(token)

	user, err := u.users.FindByEmailVerificationTokenHash(ctx, hash, now)
	if errors.Is(err, repository.ErrUserNotFound) {
		return errInvalidToken
	}
	if err != nil {
		return errDB
	}

	ok, err := u.users.ConsumeEmailVerificationToken(ctx, user.ID, hash, now)
	if err != nil {
		return errDB
	}
	if !ok {
		return errInvalidToken
	}
	return nil
}

func (u *AuthUsecase) ResendVerification(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return errUnauthorized
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return errUnauthorized
	}
	if err != nil {
		return errDB
	}
	if user.IsEmailVerified {
		return NewHTTPError(http.StatusConflict, "email is already verified")
	}

	now := u.clock.Now()
	tk, err := auth.NewTemporaryToken(now)
	if err != nil {
		return errInternal
	}
	if err := u.users.SetEmailVerificationToken(ctx, user.ID, tk.Hash, tk.ExpiresAt); err != nil {
		return errDB
	}

	if err := u.mailer.SendVerificationEmail(ctx, user.Email, user.Name, tk.Plain); err != nil {
		log.Warnf("send verification email user_id=%d: %v", user.ID, err)
	}
	return nil
}

// メールが存在するかどうかは返さない
func (u *AuthUsecase) ForgotPassword(ctx context.Context, email string) error {
	user, err := u.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return errDB
	}

	now := u.clock.Now()
	tk, err := auth.NewTemporaryToken(now)
	if err != nil {
		return errInternal
	}
	if err := u.users.SetForgotPasswordToken(ctx, user.ID, tk.Hash, tk.ExpiresAt); err != nil {
		return errDB
	}

	if err := u.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, tk.Plain); err != nil {
		log.Warnf("send password reset email user_id=%d: %v", user.ID, err)
	}
	return nil
}

func (u *AuthUsecase) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return errInvalidToken
	}
	now := u.clock.Now()
	hash := auth.HashToken(token)

	user, err := u.users.FindByForgotPasswordTokenHash(ctx, hash, now)
	if errors.Is(err, repository.ErrUserNotFound) {
		return errInvalidToken
	}
	if err != nil {
		return errDB
	}

	pwHash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return errInternal
	}

	//token_versionも上がる
	ok, err := u.users.ConsumeForgotPasswordToken(ctx, user.ID, hash, pwHash, now)
	if err != nil {
		return errDB
	}
	if !ok {
		return errInvalidToken
	}

	if err := u.rtRepo.RevokeAllByUserID(ctx, user.ID, now); err != nil {
		return errDB
	}
	return nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	invalid := NewHTTPError(http.StatusUnauthorized, "invalid email or password")

	user, err := u.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return LoginResult{}, invalid
	}
	if err != nil {
		return LoginResult{}, errDB
	}

	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return LoginResult{}, invalid
	}

	now := u.clock.Now()
	res, err := u.issueSession(ctx, user, in.UserAgent, now)
	if err != nil {
		return LoginResult{}, err
	}

	//最終ログイン時刻だけ書く
	if err := u.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return LoginResult{}, errDB
	}
	user.LastLoginAt = &now
	res.User = toUserDTO(user)
	return res, nil
}

// ローテーション。使用済みtokenが来たらreplayとみなして全失効
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (LoginResult, error) {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return LoginResult{}, errUnauthorized
	}
	now := u.clock.Now()

	rt, err := u.rtRepo.FindByTokenHash(ctx, auth.HashToken(refreshTokenPlain))
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return LoginResult{}, errUnauthorized
	}
	if err != nil {
		return LoginResult{}, errDB
	}

	if rt.RevokedAt != nil || !rt.ExpiresAt.After(now) {
		return LoginResult{}, errUnauthorized
	}

	if rt.UsedAt != nil {
		if err := u.rtRepo.RevokeAllByUserID(ctx, rt.UserID, now); err != nil {
			log.Errorf("revoke refresh tokens user_id=%d: %v", rt.UserID, err)
		}
		log.Warnf("refresh token replay detected user_id=%d", rt.UserID)
		return LoginResult{}, NewHTTPError(http.StatusUnauthorized, "refresh token reuse detected")
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return LoginResult{}, errUnauthorized
	}
	if err != nil {
		return LoginResult{}, errDB
	}

	//同時に2回来たら片方だけ通す
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			_ = u.rtRepo.RevokeAllByUserID(ctx, rt.UserID, now)
			return LoginResult{}, NewHTTPError(http.StatusUnauthorized, "refresh token reuse detected")
		}
		return LoginResult{}, errDB
	}

	if userAgent == "" {
		userAgent = rt.UserAgent
	}
	res, err := u.issueSession(ctx, user, userAgent, now)
	if err != nil {
		return LoginResult{}, err
	}
	res.User = toUserDTO(user)
	return res, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) error {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return nil
	}
	rt, err := u.rtRepo.FindByTokenHash(ctx, auth.HashToken(refreshTokenPlain))
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return nil
	}
	if err != nil {
		return errDB
	}
	if err := u.rtRepo.Revoke(ctx, rt.ID, u.clock.Now()); err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return errDB
	}
	return nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, errUnauthorized
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return UserDTO{}, errUnauthorized
	}
	if err != nil {
		return UserDTO{}, errDB
	}
	return toUserDTO(user), nil
}

// 変更後は他の端末のセッションも切る
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if userID <= 0 {
		return errUnauthorized
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return errUnauthorized
	}
	if err != nil {
		return errDB
	}
	if !u.verifier.Verify(oldPassword, user.PasswordHash) {
		return NewHTTPError(http.StatusBadRequest, "old password is incorrect")
	}
	if oldPassword == newPassword {
		return NewHTTPError(http.StatusBadRequest, "new password must differ from old password")
	}

	pwHash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return errInternal
	}
	if err := u.users.UpdatePassword(ctx, userID, pwHash); err != nil {
		return errDB
	}
	if err := u.rtRepo.RevokeAllByUserID(ctx, userID, u.clock.Now()); err != nil {
		return errDB
	}
	return nil
}

func (u *AuthUsecase) ForceLogout(ctx context.Context, actorAdminUserID int64, targetUserID int64) (ForceLogoutResult, error) {
	if actorAdminUserID <= 0 {
		return ForceLogoutResult{}, errUnauthorized
	}
	if targetUserID <= 0 {
		return ForceLogoutResult{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	before, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ForceLogoutResult{}, errNotFound
	}
	if err != nil {
		return ForceLogoutResult{}, errDB
	}

	now := u.clock.Now()
	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return ForceLogoutResult{}, errDB
	}
	if err := u.rtRepo.RevokeAllByUserID(ctx, targetUserID, now); err != nil {
		return ForceLogoutResult{}, errDB
	}

	newVersion := before.TokenVersion + 1
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   `{"token_version":` + strconv.Itoa(before.TokenVersion) + `}`,
		AfterJSON:    `{"token_version":` + strconv.Itoa(newVersion) + `}`,
		CreatedAt:    now,
	}); err != nil {
		return ForceLogoutResult{}, errDB
	}

	return ForceLogoutResult{UserID: targetUserID, NewTokenVersion: newVersion}, nil
}

// access + refresh を発行（refreshはhashだけ保存）
func (u *AuthUsecase) issueSession(ctx context.Context, user *model.User, userAgent string, now time.Time) (LoginResult, error) {
	access, exp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return LoginResult{}, errInternal
	}

	plain, err := auth.NewOpaqueToken()
	if err != nil {
		return LoginResult{}, errInternal
	}
	if len(userAgent) > 512 {
		userAgent = userAgent[:512]
	}
	rt := &model.RefreshToken{
		ID:        u.idGen.NewID(),
		UserID:    user.ID,
		TokenHash: auth.HashToken(plain),
		UserAgent: userAgent,
		ExpiresAt: now.Add(u.refreshTTL),
	}
	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return LoginResult{}, errDB
	}

	return LoginResult{
		Token: JwtAccessTokenDTO{
			AccessToken:  access,
			ExpiresIn:    int(exp.Sub(now).Seconds()),
			TokenVersion: user.TokenVersion,
		},
		RefreshTokenPlain: plain,
		RefreshExpiresAt:  rt.ExpiresAt,
	}, nil
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		TokenVersion:    u.TokenVersion,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}
