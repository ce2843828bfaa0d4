package repository

import (
	"testing"
	"time"

	"bookbazar/internal/domain/model"
	"bookbazar/internal/infra/db"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.Config())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// :memory: は接続ごとに別DBになる
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func seedBook(t *testing.T, gdb *gorm.DB, title, author string, price string, stock int64) model.Book {
	t.Helper()
	b := model.Book{Title: title, Author: author, Price: decimal.RequireFromString(price), Stock: stock}
	if err := gdb.Create(&b).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return b
}

func seedUser(t *testing.T, gdb *gorm.DB, email string) model.User {
	t.Helper()
	u := model.User{Name: "test", Email: email, PasswordHash: "x", Role: model.RoleUser}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func newAddress(userID int64, street string) model.Address {
	return model.Address{
		UserID:     userID,
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		Street:     street,
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Country:    "India",
	}
}
