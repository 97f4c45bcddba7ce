package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/internal/validation"
)

const (
	cacheProducts   = "products:"
	cacheBrands     = "brands:"
	cacheCategories = "categories:"
)

type ProductIndex interface {
	IndexProduct(ctx context.Context, doc search.ProductDoc) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []search.ProductDoc, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  *cache.Cache
	Index  ProductIndex
	Events events.Publisher
}

func NewCatalogService(r *repo.GormRepo, c *cache.Cache, idx ProductIndex, pub events.Publisher) *CatalogService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &CatalogService{Repo: r, Cache: c, Index: idx, Events: pub}
}

func listKey(prefix string, pr pageRequest) string {
	dir := "asc"
	if pr.sort.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%slist:%d:%d:%s:%s", prefix, pr.page, pr.size, pr.sort.Column, dir)
}

func idKey(prefix string, id uint) string {
	return fmt.Sprintf("%s%d", prefix, id)
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

func (s *CatalogService) ListProducts(ctx context.Context, q transport.PageQuery) (*transport.Page[models.Product], error) {
	pr, err := parsePage(q, productSortFields)
	if err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.Cache, listKey(cacheProducts, pr), func(ctx context.Context) (*transport.Page[models.Product], error) {
		total, items, err := s.Repo.ListProducts(ctx, pr.offset, pr.limit, pr.sort)
		if err != nil {
			return nil, err
		}
		return newPage(pr, total, items), nil
	})
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return cache.Remember(ctx, s.Cache, idKey(cacheProducts, id), func(ctx context.Context) (*models.Product, error) {
		p, err := s.Repo.GetProduct(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("Product with ID %d not found", id))
		}
		return p, nil
	})
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")

	if msgs := validation.CreateProduct(req); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	p := models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		BrandID:     req.BrandID,
	}
	if err := s.Repo.CreateProduct(ctx, &p, req.CategoriesIDs); err != nil {
		if errors.Is(err, repo.ErrMissingReference) {
			l.Warn("create_product_failed", "status", 404, "error", err)
			return nil, apperr.NotFound("Brand or category not found")
		}
		l.Error("create_product_failed", "status", 500, "error", err)
		return nil, err
	}

	s.afterProductWrite(ctx, l, &p, "product_created")
	return &p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.patch_product", "product_id", id)

	if msgs := validation.PatchProduct(req); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("Product with ID %d not found", id))
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.BrandID != nil {
		p.BrandID = *req.BrandID
		p.Brand = models.Brand{}
	}

	if err := s.Repo.UpdateProduct(ctx, p, req.CategoriesIDs); err != nil {
		if errors.Is(err, repo.ErrMissingReference) {
			l.Warn("patch_product_failed", "status", 404, "error", err)
			return nil, apperr.NotFound("Brand or category not found")
		}
		l.Error("patch_product_failed", "status", 500, "error", err)
		return nil, err
	}

	s.afterProductWrite(ctx, l, p, "product_updated")
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "product_id", id)

	ordered, err := s.Repo.ProductOrdered(ctx, id)
	if err != nil {
		return err
	}
	if ordered {
		return apperr.Conflict("Product is referenced by existing orders")
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFoundOr(err, fmt.Sprintf("Product with ID %d not found", id))
	}

	s.Cache.Invalidate(ctx, cacheProducts)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("unindex_failed", "error", err)
		}
	}
	publish(ctx, l, s.Events, events.TopicProducts, fmt.Sprint(id), events.Event{Type: "product_deleted", ID: id})
	l.Info("product_deleted")
	return nil
}

func (s *CatalogService) afterProductWrite(ctx context.Context, l *slog.Logger, p *models.Product, eventType string) {
	s.Cache.Invalidate(ctx, cacheProducts)
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, search.DocFromProduct(p)); err != nil {
			l.Warn("index_failed", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, l, s.Events, events.TopicProducts, fmt.Sprint(p.ID), events.Event{Type: eventType, ID: p.ID, Name: p.Name})
	l.Info(eventType, "product_id", p.ID)
}

// SearchProducts runs a full-text query against the search index.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, q transport.PageQuery) (*transport.Page[search.ProductDoc], error) {
	if s.Index == nil {
		return nil, apperr.Unavailable("Search is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("Query must not be empty")
	}
	offset, limit := util.Calculate(q.Page, q.Size)
	pr := pageRequest{page: offset/limit + 1, size: limit, offset: offset, limit: limit}

	total, docs, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		logging.FromContext(ctx).With("svc", "catalog.search").Error("search_failed", "status", 503, "error", err)
		return nil, apperr.Unavailable("Search is temporarily unavailable")
	}
	return newPage(pr, total, docs), nil
}

// Reindex pushes every product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, apperr.Unavailable("Search is not configured")
	}
	const batch = 100
	n := 0
	for offset := 0; ; offset += batch {
		_, items, err := s.Repo.ListProducts(ctx, offset, batch, repo.Sort{Column: "id"})
		if err != nil {
			return n, err
		}
		for i := range items {
			if err := s.Index.IndexProduct(ctx, search.DocFromProduct(&items[i])); err != nil {
				return n, err
			}
			n++
		}
		if len(items) < batch {
			return n, nil
		}
	}
}
