package repository

import (
	"context"

	"bookbazar/internal/domain/model"
	repo "bookbazar/internal/repository"

	"gorm.io/gorm"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

// 住所を作成
func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, mapWriteError(err)
	}
	return address, nil
}

// デフォルトを先頭に
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *addressGormRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// 同じユーザーに同じ住所がすでにあるか
func (r *addressGormRepository) ExistsSame(ctx context.Context, a model.Address) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Address{}).
		Where("user_id = ? AND id <> ?", a.UserID, a.ID).
		Where("LOWER(street) = LOWER(?) AND LOWER(city) = LOWER(?) AND LOWER(state) = LOWER(?)", a.Street, a.City, a.State).
		Where("postal_code = ? AND LOWER(country) = LOWER(?)", a.PostalCode, a.Country).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).First(&a, addressID).Error
	if isNotFound(err) {
		return model.Address{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Address{}, err
	}
	return a, nil
}

// is_defaultはSetDefaultでだけ変える
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	result := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ?", address.ID).
		Select(
			"full_name",
			"phone",
			"street",
			"city",
			"state",
			"postal_code",
			"country",
			"updated_at",
		).
		Updates(address)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *addressGormRepository) Delete(ctx context.Context, addressID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", addressID).
		Delete(&model.Address{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// その住所がそのユーザーのものか
func (r *addressGormRepository) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 1, nil
}

// デフォルト住所を切り替える
// 部分ユニークインデックスがあるので、外す→付けるの順でTx内で呼ぶ
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Address{}).
		Where("user_id = ? AND is_default = ? AND id <> ?", userID, true, addressID).
		Update("is_default", false).Error; err != nil {
		return err
	}

	result := db.Model(&model.Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Update("is_default", true)
	if result.Error != nil {
		return mapWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
