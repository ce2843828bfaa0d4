package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// メール確認・パスワード再設定トークンの有効期間
const TemporaryTokenTTL = 20 * time.Minute

// メールで送る平文と、DBに保存するhash・期限
type TemporaryToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// 20バイトの乱数（16進）
func NewTemporaryToken(now time.Time) (TemporaryToken, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return TemporaryToken{}, err
	}
	plain := hex.EncodeToString(b)
	return TemporaryToken{
		Plain:     plain,
		Hash:      HashToken(plain),
		ExpiresAt: now.Add(TemporaryTokenTTL),
	}, nil
}

// SHA-256の16進（リフレッシュトークンも同じ）
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// リフレッシュトークン用（32バイト）
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
