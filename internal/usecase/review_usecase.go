package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"
	auth "bookbazar/internal/usecase/auth_usecase"
)

type ReviewUsecase struct {
	reviews repo.ReviewRepository
	books   repo.BookRepository
	users   repo.UserRepository
	clock   auth.Clock
}

func NewReviewUsecase(reviews repo.ReviewRepository, books repo.BookRepository, users repo.UserRepository, clock auth.Clock) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, books: books, users: users, clock: clock}
}

type AddReviewInput struct {
	Rating  int
	Comment string
}

type ReviewListOutput struct {
	Items []model.Review `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// 1ユーザー1書籍につき1件
func (u *ReviewUsecase) Add(ctx context.Context, userID int64, bookID int64, in AddReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, errUnauthorized
	}
	if bookID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	comment := strings.TrimSpace(in.Comment)
	var details []ErrorDetail
	if in.Rating < 1 || in.Rating > 5 {
		details = append(details, ErrorDetail{Field: "rating", Message: "rating must be between 1 and 5"})
	}
	if len(comment) > 2000 {
		details = append(details, ErrorDetail{Field: "comment", Message: "comment is too long"})
	}
	if len(details) > 0 {
		return model.Review{}, NewValidationError(details)
	}

	if _, err := u.books.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Review{}, NewHTTPError(http.StatusNotFound, "book not found")
		}
		return model.Review{}, errDB
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return model.Review{}, errUnauthorized
	}
	if err != nil {
		return model.Review{}, errDB
	}

	rv, err := u.reviews.Create(ctx, model.Review{
		UserID:    userID,
		UserName:  user.Name,
		BookID:    bookID,
		Rating:    in.Rating,
		Comment:   comment,
		CreatedAt: u.clock.Now(),
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Review{}, NewHTTPError(http.StatusConflict, "you have already reviewed this book")
	}
	if err != nil {
		return model.Review{}, errDB
	}
	return rv, nil
}

// 新しい順
func (u *ReviewUsecase) ListByBook(ctx context.Context, bookID int64, page, limit int) (ReviewListOutput, error) {
	if bookID <= 0 {
		return ReviewListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	if page < 1 {
		return ReviewListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return ReviewListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.reviews.ListByBookID(ctx, bookID, page, limit)
	if err != nil {
		return ReviewListOutput{}, errDB
	}
	return ReviewListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// 投稿者本人か管理者だけ削除できる
func (u *ReviewUsecase) Delete(ctx context.Context, userID int64, role model.Role, reviewID string) error {
	if userID <= 0 {
		return errUnauthorized
	}
	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid review id")
	}

	rv, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "review not found")
	}
	if err != nil {
		return errDB
	}
	if rv.UserID != userID && role != model.RoleAdmin {
		return errForbidden
	}

	err = u.reviews.Delete(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "review not found")
	}
	if err != nil {
		return errDB
	}
	return nil
}
