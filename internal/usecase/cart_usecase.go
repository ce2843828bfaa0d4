package usecase

import (
	"context"
	"errors"
	"net/http"

	repo "bookbazar/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
// カートは (user_id, book_id) ごとに1行
type CartUsecase struct {
	cartItems repo.CartItemRepository
	books     repo.BookRepository
}

func NewCartUsecase(cartItems repo.CartItemRepository, books repo.BookRepository) *CartUsecase {
	return &CartUsecase{cartItems: cartItems, books: books}
}

// price は現在の書籍価格（注文確定時にスナップショットする）
type CartItemResponse struct {
	BookID    int64           `json:"book_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Available bool            `json:"available"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	BookID   int64
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	return u.buildCartResponse(ctx, userID)
}

// 同じ書籍なら数量を加算。在庫を超える数量は入れない
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	if in.BookID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
	}

	b, err := u.books.FindByID(ctx, in.BookID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return CartResponse{}, errDB
	}

	current := int64(0)
	existing, err := u.cartItems.FindByUserAndBook(ctx, userID, in.BookID)
	switch {
	case err == nil:
		current = existing.Quantity
	case errors.Is(err, repo.ErrNotFound):
	default:
		return CartResponse{}, errDB
	}
	if current+in.Quantity > b.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "not enough stock")
	}

	if _, err := u.cartItems.Upsert(ctx, userID, in.BookID, in.Quantity); err != nil {
		return CartResponse{}, errDB
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, bookID int64, quantity int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	if bookID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	if quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
	}

	b, err := u.books.FindByID(ctx, bookID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return CartResponse{}, errDB
	}
	if quantity > b.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "not enough stock")
	}

	err = u.cartItems.UpdateQuantity(ctx, userID, bookID, quantity)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not in cart")
	}
	if err != nil {
		return CartResponse{}, errDB
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) RemoveCartItem(ctx context.Context, userID int64, bookID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized
	}
	if bookID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	err := u.cartItems.Delete(ctx, userID, bookID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not in cart")
	}
	if err != nil {
		return CartResponse{}, errDB
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return errUnauthorized
	}
	if err := u.cartItems.DeleteAllByUserID(ctx, userID); err != nil {
		return errDB
	}
	return nil
}

// 削除済みの書籍は available=false で返し、合計には含めない
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	books, err := u.books.FindByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, errDB
	}

	res := CartResponse{Items: make([]CartItemResponse, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		line := CartItemResponse{BookID: it.BookID, Quantity: it.Quantity, Price: decimal.Zero, Subtotal: decimal.Zero}
		if b, ok := books[it.BookID]; ok {
			line.Title = b.Title
			line.Author = b.Author
			line.ImageURL = b.ImageURL
			line.Price = b.Price
			line.Subtotal = b.Price.Mul(decimal.NewFromInt(it.Quantity))
			line.Available = true
			res.Total = res.Total.Add(line.Subtotal)
		}
		res.Items = append(res.Items, line)
	}
	return res, nil
}
