package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/cache"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/slug"
)

// ListProductsInput holds the raw listing query values.
type ListProductsInput struct {
	Keyword string
	SortBy  string
	Order   string
	Page    string
}

// ProductPage is one page of the public product listing.
type ProductPage struct {
	Products []domain.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

// ProductInput holds the editable fields of a product.
type ProductInput struct {
	Name         string
	Description  string
	Image        string
	Price        decimal.Decimal
	CountInStock int
}

// CatalogService implements product browsing and administration.
type CatalogService struct {
	repo   repository.ProductRepository
	cache  cache.ProductCache
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, productCache cache.ProductCache, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		cache:  productCache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListProducts returns a page of products whose name contains the keyword.
// A page that is not a positive integer or lies past the last page yields
// the first page.
func (s *CatalogService) ListProducts(ctx context.Context, input ListProductsInput) (*ProductPage, error) {
	total, err := s.repo.Count(ctx, input.Keyword)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	pages := pagination.Pages(total, domain.ProductPageSize)
	page := pagination.ParsePage(input.Page)
	if page > pages {
		page = 1
	}

	products, err := s.repo.List(ctx, repository.ProductFilter{
		Keyword: input.Keyword,
		Sort:    domain.ParseProductSort(input.SortBy, input.Order),
		Page:    page,
		PerPage: domain.ProductPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &ProductPage{Products: products, Page: page, Pages: pages}, nil
}

// GetProduct returns a product with its reviews and media, served from the
// product cache when possible.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "product cache read failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	if cached != nil {
		return cached, nil
	}

	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if err := s.cache.Set(ctx, detail); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	return detail, nil
}

func validateProductInput(input *ProductInput) error {
	if input.Price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if len(input.Name) > 200 {
		return apperrors.InvalidInput("name must be at most 200 characters")
	}
	return nil
}

// CreateProduct adds a product. A missing name becomes the placeholder
// "Sample Name".
func (s *CatalogService) CreateProduct(ctx context.Context, input *ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = domain.DefaultProductName
	}

	now := s.now()
	product := &domain.Product{
		ID:           uuid.New().String(),
		Name:         name,
		Slug:         slug.Generate(name),
		Description:  input.Description,
		Image:        input.Image,
		Price:        input.Price,
		CountInStock: input.CountInStock,
		Rating:       decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)
	return product, nil
}

// UpdateProduct replaces a product's editable fields. Rating and review
// count are left alone.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input *ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if input.Name != "" {
		product.Name = input.Name
		product.Slug = slug.Generate(input.Name)
	}
	product.Description = input.Description
	product.Image = input.Image
	product.Price = input.Price
	product.CountInStock = input.CountInStock
	product.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", id))
	return product, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// ReorderMedia rewrites the product's media positions to follow mediaIDs.
func (s *CatalogService) ReorderMedia(ctx context.Context, productID string, mediaIDs []string) ([]domain.ProductMedia, error) {
	media, err := s.repo.ReorderMedia(ctx, productID, mediaIDs)
	if err != nil {
		return nil, fmt.Errorf("reorder media: %w", err)
	}
	s.invalidate(ctx, productID)
	return media, nil
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}
