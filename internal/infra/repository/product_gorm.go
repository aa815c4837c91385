package repository

import (
	"context"
	"errors"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	repo "github.com/ShevArtV/miniShop2/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)

// カートに入れる商品を取得。
// 削除済み（deleted_at）と非公開（is_active=false）は設定で許可されていなければ見つからない扱い。
func (r *ProductGormRepository) FindForCart(ctx context.Context, id int64, f repo.ProductFilter) (model.Product, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if !f.ExcludeDeleted {
		tx = tx.Unscoped()
	}
	if f.ExcludeUnpublished {
		tx = tx.Where("is_active = ?", true)
	}

	var p model.Product
	err := tx.Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}
