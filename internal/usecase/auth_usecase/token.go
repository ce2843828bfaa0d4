package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"bookbazar/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// アクセストークンのclaims
type AccessClaims struct {
	Role         model.Role `json:"role"`
	TokenVersion int        `json:"tv"`
	jwt.RegisteredClaims
}

// 検証済みの中身
type AccessIdentity struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// HS256
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *JWTIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *JWTIssuer) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.ttl)
	claims := AccessClaims{
		Role:         role,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// 署名・期限・ロールを検証して中身を返す
func ParseAccessToken(secret string, tokenStr string) (AccessIdentity, error) {
	var claims AccessClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return AccessIdentity{}, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}

	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return AccessIdentity{}, fmt.Errorf("%w: bad sub", ErrInvalidAccessToken)
	}
	//閉じたロールのみ
	if !claims.Role.Valid() {
		return AccessIdentity{}, fmt.Errorf("%w: unknown role", ErrInvalidAccessToken)
	}
	return AccessIdentity{UserID: uid, Role: claims.Role, TokenVersion: claims.TokenVersion}, nil
}
