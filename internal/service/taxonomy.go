package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/validation"
)

func (s *CatalogService) ListBrands(ctx context.Context, q transport.PageQuery) (*transport.Page[models.Brand], error) {
	pr, err := parsePage(q, namedSortFields)
	if err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.Cache, listKey(cacheBrands, pr), func(ctx context.Context) (*transport.Page[models.Brand], error) {
		total, items, err := s.Repo.ListBrands(ctx, pr.offset, pr.limit, pr.sort)
		if err != nil {
			return nil, err
		}
		return newPage(pr, total, items), nil
	})
}

func (s *CatalogService) GetBrand(ctx context.Context, id uint) (*models.Brand, error) {
	return cache.Remember(ctx, s.Cache, idKey(cacheBrands, id), func(ctx context.Context) (*models.Brand, error) {
		b, err := s.Repo.GetBrand(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("Brand with ID %d not found", id))
		}
		return b, nil
	})
}

func (s *CatalogService) CreateBrand(ctx context.Context, req transport.NamedRequest) (*models.Brand, error) {
	if msgs := validation.CreateNamed(req); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	b := models.Brand{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if err := s.Repo.CreateBrand(ctx, &b); err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, cacheBrands)
	logging.FromContext(ctx).With("svc", "catalog.create_brand").Info("brand_created", "brand_id", b.ID)
	return &b, nil
}

func (s *CatalogService) PatchBrand(ctx context.Context, id uint, req transport.PatchNamedRequest) (*models.Brand, error) {
	if msgs := validation.PatchNamed(req); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	b, err := s.Repo.GetBrand(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("Brand with ID %d not found", id))
	}
	applyNamedPatch(&b.Name, &b.Description, req)
	if err := s.Repo.SaveBrand(ctx, b); err != nil {
		return nil, err
	}
	// products embed their brand
	s.Cache.Invalidate(ctx, cacheBrands, cacheProducts)
	return b, nil
}

func (s *CatalogService) DeleteBrand(ctx context.Context, id uint) error {
	inUse, err := s.Repo.BrandInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apperr.Conflict("Brand is referenced by existing products")
	}
	if err := s.Repo.DeleteBrand(ctx, id); err != nil {
		return notFoundOr(err, fmt.Sprintf("Brand with ID %d not found", id))
	}
	s.Cache.Invalidate(ctx, cacheBrands)
	logging.FromContext(ctx).With("svc", "catalog.delete_brand").Info("brand_deleted", "brand_id", id)
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context, q transport.PageQuery) (*transport.Page[models.Category], error) {
	pr, err := parsePage(q, namedSortFields)
	if err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.Cache, listKey(cacheCategories, pr), func(ctx context.Context) (*transport.Page[models.Category], error) {
		total, items, err := s.Repo.ListCategories(ctx, pr.offset, pr.limit, pr.sort)
		if err != nil {
			return nil, err
		}
		return newPage(pr, total, items), nil
	})
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return cache.Remember(ctx, s.Cache, idKey(cacheCategories, id), func(ctx context.Context) (*models.Category, error) {
		c, err := s.Repo.GetCategory(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("Category with ID %d not found", id))
		}
		return c, nil
	})
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.NamedRequest) (*models.Category, error) {
	if msgs := validation.CreateNamed(req); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	c := models.Category{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if err := s.Repo.CreateCategory(ctx, &c); err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, cacheCategories)
	logging.FromContext(ctx).With("svc", "catalog.create_category").Info("category_created", "category_id", c.ID)
	return &c, nil
}

func (s *CatalogService) PatchCategory(ctx context.Context, id uint, req transport.PatchNamedRequest) (*models.Category, error) {
	if msgs := validation.PatchNamed(req); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("Category with ID %d not found", id))
	}
	applyNamedPatch(&c.Name, &c.Description, req)
	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, cacheCategories, cacheProducts)
	return c, nil
}

// DeleteCategory also unlinks the category from its products.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return notFoundOr(err, fmt.Sprintf("Category with ID %d not found", id))
	}
	s.Cache.Invalidate(ctx, cacheCategories, cacheProducts)
	logging.FromContext(ctx).With("svc", "catalog.delete_category").Info("category_deleted", "category_id", id)
	return nil
}

func applyNamedPatch(name, description *string, req transport.PatchNamedRequest) {
	if req.Name != nil {
		*name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		*description = strings.TrimSpace(*req.Description)
	}
}
