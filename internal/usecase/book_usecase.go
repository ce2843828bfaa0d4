package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"
	auth "bookbazar/internal/usecase/auth_usecase"

	"github.com/shopspring/decimal"
)

type BookUsecase struct {
	books repo.BookRepository
	tx    repo.TransactionManager
	clock auth.Clock
}

// DI
func NewBookUsecase(books repo.BookRepository, tx repo.TransactionManager, clock auth.Clock) *BookUsecase {
	return &BookUsecase{books: books, tx: tx, clock: clock}
}

// GET /booksの入力DTO
type ListBooksInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type BookListOutput struct {
	Items []model.Book `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *BookUsecase) ListBooks(ctx context.Context, in ListBooksInput) (BookListOutput, error) {
	if in.Page < 1 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "title":
	default:
		return BookListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.books.List(ctx, repo.BookListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return BookListOutput{}, errDB
	}

	return BookListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *BookUsecase) GetBook(ctx context.Context, bookID int64) (model.Book, error) {
	if bookID <= 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	b, err := u.books.FindByID(ctx, bookID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Book{}, errNotFound
	}
	if err != nil {
		return model.Book{}, errDB
	}
	return b, nil
}

type AdminCreateBookInput struct {
	Title       string
	Author      string
	Description string
	Price       decimal.Decimal
	Stock       int64
	ImageURL    string
}

func (u *BookUsecase) AdminCreateBook(ctx context.Context, adminUserID int64, in AdminCreateBookInput) (model.Book, error) {
	if adminUserID <= 0 {
		return model.Book{}, errUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "title and author required")
	}
	if in.Price.IsNegative() {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	now := u.clock.Now()
	b, err := u.books.Create(ctx, model.Book{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Book{}, errDB
	}
	return b, nil
}

// nilのフィールドは変更しない
type AdminUpdateBookInput struct {
	Title       *string
	Author      *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
}

func (u *BookUsecase) AdminUpdateBook(ctx context.Context, adminUserID int64, bookID int64, in AdminUpdateBookInput) (model.Book, error) {
	if adminUserID <= 0 {
		return model.Book{}, errUnauthorized
	}
	if bookID <= 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	b, err := u.books.FindByID(ctx, bookID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Book{}, errNotFound
	}
	if err != nil {
		return model.Book{}, errDB
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return model.Book{}, NewHTTPError(http.StatusBadRequest, "title required")
		}
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		if strings.TrimSpace(*in.Author) == "" {
			return model.Book{}, NewHTTPError(http.StatusBadRequest, "author required")
		}
		b.Author = strings.TrimSpace(*in.Author)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return model.Book{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
		}
		b.Price = in.Price.Round(2)
	}
	if in.ImageURL != nil {
		b.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	b.UpdatedAt = u.clock.Now()

	err = u.books.Update(ctx, b)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Book{}, errNotFound
	}
	if err != nil {
		return model.Book{}, errDB
	}
	return b, nil
}

// 論理削除（既存注文のスナップショットには影響しない）
func (u *BookUsecase) AdminDeleteBook(ctx context.Context, adminUserID int64, bookID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized
	}
	if bookID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		b, err := r.Books().FindByID(ctx, bookID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}
		if err := r.Books().SoftDelete(ctx, bookID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteBook,
			ResourceType: model.AuditResourceBook,
			ResourceID:   bookID,
			BeforeJSON:   fmt.Sprintf(`{"title":%q,"stock":%d}`, b.Title, b.Stock),
			AfterJSON:    `{"deleted":true}`,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB
		}
		return nil
	})
}

// 在庫を「現在値」に更新し、調整履歴と監査ログを同じTxで残す
func (u *BookUsecase) AdminUpdateStock(ctx context.Context, adminUserID int64, bookID int64, newStock int64, reason string) (model.Book, error) {
	if adminUserID <= 0 {
		return model.Book{}, errUnauthorized
	}
	if bookID <= 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	if newStock < 0 {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return model.Book{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	var out model.Book
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		b, err := r.Books().FindByID(ctx, bookID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		if err := r.Inventory().SetStock(ctx, bookID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		now := u.clock.Now()
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			BookID:      bookID,
			AdminUserID: adminUserID,
			Delta:       newStock - b.Stock,
			Reason:      strings.TrimSpace(reason),
			CreatedAt:   now,
		}); err != nil {
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceBook,
			ResourceID:   bookID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, b.Stock),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			CreatedAt:    now,
		}); err != nil {
			return errDB
		}

		b.Stock = newStock
		out = b
		return nil
	})
	if err != nil {
		return model.Book{}, err
	}
	return out, nil
}
