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

type AddressInput struct {
	FullName   string
	Phone      string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// nilのフィールドは変更しない
type AddressUpdateInput struct {
	FullName   *string
	Phone      *string
	Street     *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
}

type AddressUsecase struct {
	addresses repo.AddressRepository
	tx        repo.TransactionManager
	clock     auth.Clock
}

func NewAddressUsecase(addresses repo.AddressRepository, tx repo.TransactionManager, clock auth.Clock) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, tx: tx, clock: clock}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	if userID <= 0 {
		return nil, errUnauthorized
	}
	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errDB
	}
	return list, nil
}

// 最初の住所は自動でデフォルトになる
func (u *AddressUsecase) Add(ctx context.Context, userID int64, in AddressInput) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, errUnauthorized
	}

	now := u.clock.Now()
	a := model.Address{
		UserID:     userID,
		FullName:   strings.TrimSpace(in.FullName),
		Phone:      strings.TrimSpace(in.Phone),
		Street:     strings.TrimSpace(in.Street),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.TrimSpace(in.Country),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if d := missingAddressFields(a); len(d) > 0 {
		return model.Address{}, NewValidationError(d)
	}

	var out model.Address
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		dup, err := r.Addresses().ExistsSame(ctx, a)
		if err != nil {
			return errDB
		}
		if dup {
			return NewHTTPError(http.StatusConflict, "address already exists")
		}

		n, err := r.Addresses().CountByUserID(ctx, userID)
		if err != nil {
			return errDB
		}

		created, err := r.Addresses().Create(ctx, a)
		if err != nil {
			return errDB
		}

		if n == 0 || in.IsDefault {
			if err := r.Addresses().SetDefault(ctx, userID, created.ID); err != nil {
				return errDB
			}
			created.IsDefault = true
		}
		out = created
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	return out, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressUpdateInput) (model.Address, error) {
	a, err := u.findOwn(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&a.FullName, in.FullName)
	set(&a.Phone, in.Phone)
	set(&a.Street, in.Street)
	set(&a.City, in.City)
	set(&a.State, in.State)
	set(&a.PostalCode, in.PostalCode)
	set(&a.Country, in.Country)
	if d := missingAddressFields(a); len(d) > 0 {
		return model.Address{}, NewValidationError(d)
	}

	dup, err := u.addresses.ExistsSame(ctx, a)
	if err != nil {
		return model.Address{}, errDB
	}
	if dup {
		return model.Address{}, NewHTTPError(http.StatusConflict, "address already exists")
	}

	a.UpdatedAt = u.clock.Now()
	err = u.addresses.Update(ctx, a)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		return model.Address{}, errDB
	}
	return a, nil
}

// デフォルトを消したら一番古い住所を次のデフォルトにする
func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	a, err := u.findOwn(ctx, userID, addressID)
	if err != nil {
		return err
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Addresses().Delete(ctx, addressID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "address not found")
			}
			return errDB
		}
		if !a.IsDefault {
			return nil
		}

		rest, err := r.Addresses().ListByUserID(ctx, userID)
		if err != nil {
			return errDB
		}
		if len(rest) == 0 {
			return nil
		}
		oldest := rest[0]
		for _, x := range rest[1:] {
			if x.ID < oldest.ID {
				oldest = x
			}
		}
		if err := r.Addresses().SetDefault(ctx, userID, oldest.ID); err != nil {
			return errDB
		}
		return nil
	})
}

// 外す→付けるを同じTxで行う
func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) (model.Address, error) {
	a, err := u.findOwn(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}
	if a.IsDefault {
		return a, nil
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Addresses().SetDefault(ctx, userID, addressID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "address not found")
			}
			return errDB
		}
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	a.IsDefault = true
	return a, nil
}

//所有チェック（他人の住所は403）
func (u *AddressUsecase) findOwn(ctx context.Context, userID int64, addressID int64) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, errUnauthorized
	}
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid address id")
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		return model.Address{}, errDB
	}
	if a.UserID != userID {
		return model.Address{}, errForbidden
	}
	return a, nil
}

func missingAddressFields(a model.Address) []ErrorDetail {
	fields := []struct {
		name string
		val  string
	}{
		{"full_name", a.FullName},
		{"phone", a.Phone},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	var out []ErrorDetail
	for _, f := range fields {
		if f.val == "" {
			out = append(out, ErrorDetail{Field: f.name, Message: f.name + " is required"})
		}
	}
	return out
}
