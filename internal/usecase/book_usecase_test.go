package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"
	"bookbazar/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBookUsecase() (*usecase.BookUsecase, *bookRepoMock, *inventoryRepoMock, *auditRepoMock, *txManagerMock) {
	books := new(bookRepoMock)
	inventory := new(inventoryRepoMock)
	audit := new(auditRepoMock)
	tx := &txManagerMock{repos: &txReposMock{books: books, inventory: inventory, auditLogs: audit}}
	return usecase.NewBookUsecase(books, tx, fixedClock{now: testNow}), books, inventory, audit, tx
}

func TestBookUsecase_ListBooks_Validation(t *testing.T) {
	uc, books, _, _, _ := newBookUsecase()
	lo := decimal.NewFromInt(50)
	hi := decimal.NewFromInt(10)

	cases := []struct {
		name string
		in   usecase.ListBooksInput
		want string
	}{
		{"page", usecase.ListBooksInput{Page: 0, Limit: 10}, "invalid page"},
		{"limit", usecase.ListBooksInput{Page: 1, Limit: 101}, "invalid limit"},
		{"sort", usecase.ListBooksInput{Page: 1, Limit: 10, Sort: "random"}, "invalid sort"},
		{"range", usecase.ListBooksInput{Page: 1, Limit: 10, MinPrice: &lo, MaxPrice: &hi}, "min_price must be <= max_price"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := uc.ListBooks(context.Background(), c.in)
			assertErrContains(t, err, c.want)
		})
	}
	books.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestBookUsecase_ListBooks_TrimsQuery(t *testing.T) {
	uc, books, _, _, _ := newBookUsecase()
	books.On("List", mock.Anything, repo.BookListQuery{Page: 2, Limit: 5, Q: "go", Sort: "price_asc"}).
		Return([]model.Book{{ID: 1}}, int64(6), nil)

	out, err := uc.ListBooks(context.Background(), usecase.ListBooksInput{Page: 2, Limit: 5, Q: "  go ", Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), out.Total)
}

func TestBookUsecase_GetBook_NotFound(t *testing.T) {
	uc, books, _, _, _ := newBookUsecase()
	books.On("FindByID", mock.Anything, int64(9)).Return(model.Book{}, repo.ErrNotFound)

	_, err := uc.GetBook(context.Background(), 9)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestBookUsecase_AdminUpdateStock_RecordsAdjustmentAndAudit(t *testing.T) {
	uc, books, inventory, audit, tx := newBookUsecase()
	tx.On("WithinTx", mock.Anything).Return(nil)
	books.On("FindByID", mock.Anything, int64(10)).Return(model.Book{ID: 10, Stock: 4}, nil)
	inventory.On("SetStock", mock.Anything, int64(10), int64(9)).Return(nil).Once()
	inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.Delta == 5 && a.AdminUserID == 100 && a.Reason == "restock"
	})).Return(nil).Once()
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock && l.BeforeJSON == `{"stock":4}` && l.AfterJSON == `{"stock":9}`
	})).Return(nil).Once()

	b, err := uc.AdminUpdateStock(context.Background(), 100, 10, 9, " restock ")
	require.NoError(t, err)
	assert.Equal(t, int64(9), b.Stock)

	inventory.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestBookUsecase_AdminUpdateStock_RequiresReason(t *testing.T) {
	uc, _, _, _, tx := newBookUsecase()

	_, err := uc.AdminUpdateStock(context.Background(), 100, 10, 9, "")
	assertErrContains(t, err, "reason required")
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestBookUsecase_AdminDeleteBook_SoftDeletesAndAudits(t *testing.T) {
	uc, books, _, audit, tx := newBookUsecase()
	tx.On("WithinTx", mock.Anything).Return(nil)
	books.On("FindByID", mock.Anything, int64(10)).Return(model.Book{ID: 10, Title: "Go", Stock: 1}, nil)
	books.On("SoftDelete", mock.Anything, int64(10)).Return(nil).Once()
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionDeleteBook && l.ResourceID == 10
	})).Return(nil).Once()

	require.NoError(t, uc.AdminDeleteBook(context.Background(), 100, 10))
	books.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestBookUsecase_AdminCreateBook_RoundsPrice(t *testing.T) {
	uc, books, _, _, _ := newBookUsecase()
	books.On("Create", mock.Anything, mock.MatchedBy(func(b model.Book) bool {
		return b.Price.Equal(decimal.RequireFromString("12.35")) && b.Title == "Go"
	})).Return(model.Book{ID: 1, Title: "Go"}, nil).Once()

	b, err := uc.AdminCreateBook(context.Background(), 100, usecase.AdminCreateBookInput{
		Title: " Go ", Author: "Pike", Price: decimal.RequireFromString("12.349"), Stock: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ID)
	books.AssertExpectations(t)
}
