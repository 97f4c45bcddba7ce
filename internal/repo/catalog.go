package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrMissingReference = errors.New("referenced record does not exist")

func (r *GormRepo) ListBrands(ctx context.Context, offset, limit int, sort Sort) (int64, []models.Brand, error) {
	var items []models.Brand
	total, err := r.page(ctx, &models.Brand{}, &items, offset, limit, sort)
	return total, items, err
}

func (r *GormRepo) GetBrand(ctx context.Context, id uint) (*models.Brand, error) {
	var brand models.Brand
	if err := r.DB.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *GormRepo) CreateBrand(ctx context.Context, b *models.Brand) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *GormRepo) SaveBrand(ctx context.Context, b *models.Brand) error {
	return r.DB.WithContext(ctx).Save(b).Error
}

func (r *GormRepo) DeleteBrand(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Brand{}, id)
}

func (r *GormRepo) ListCategories(ctx context.Context, offset, limit int, sort Sort) (int64, []models.Category, error) {
	var items []models.Category
	total, err := r.page(ctx, &models.Category{}, &items, offset, limit, sort)
	return total, items, err
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.Category{}, id)
	})
}

func (r *GormRepo) productQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("Brand").Preload("Categories")
}

func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int, sort Sort) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.productQuery(ctx).Order(sort.clause()).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.productQuery(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductsByIDs returns the products keyed by id. Missing ids are absent from the map.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]models.Product, len(items))
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) categoriesByIDs(tx *gorm.DB, ids []uint) ([]models.Category, error) {
	var cats []models.Category
	if err := tx.Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, err
	}
	if len(cats) != len(uniq(ids)) {
		return nil, fmt.Errorf("%w: category", ErrMissingReference)
	}
	return cats, nil
}

func (r *GormRepo) ensureBrand(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Brand{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: brand %d", ErrMissingReference, id)
	}
	return nil
}

// CreateProduct inserts p linked to the given categories. It fails with
// ErrMissingReference when the brand or a category does not exist.
func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product, categoryIDs []uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensureBrand(tx, p.BrandID); err != nil {
			return err
		}
		cats, err := r.categoriesByIDs(tx, categoryIDs)
		if err != nil {
			return err
		}
		p.Categories = cats
		return tx.Omit("Brand").Create(p).Error
	})
	if err != nil {
		return err
	}
	return r.productQuery(ctx).First(p, p.ID).Error
}

// UpdateProduct saves p. A non-nil categoryIDs replaces the category set.
func (r *GormRepo) UpdateProduct(ctx context.Context, p *models.Product, categoryIDs []uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensureBrand(tx, p.BrandID); err != nil {
			return err
		}
		if err := tx.Omit("Brand", "Categories").Save(p).Error; err != nil {
			return err
		}
		if categoryIDs == nil {
			return nil
		}
		cats, err := r.categoriesByIDs(tx, categoryIDs)
		if err != nil {
			return err
		}
		return tx.Model(p).Association("Categories").Replace(cats)
	})
	if err != nil {
		return err
	}
	var fresh models.Product
	if err := r.productQuery(ctx).First(&fresh, p.ID).Error; err != nil {
		return err
	}
	*p = fresh
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_categories WHERE product_id = ?", id).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.Product{}, id)
	})
}

func (r *GormRepo) page(ctx context.Context, model any, dest any, offset, limit int, sort Sort) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(model).Count(&total).Error; err != nil {
		return 0, err
	}
	if err := r.DB.WithContext(ctx).Model(model).Order(sort.clause()).Offset(offset).Limit(limit).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormRepo) deleteByID(ctx context.Context, model any, id uint) error {
	return deleteByID(r.DB.WithContext(ctx), model, id)
}

func deleteByID(db *gorm.DB, model any, id uint) error {
	res := db.Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *GormRepo) BrandInUse(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("brand_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ProductOrdered(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
