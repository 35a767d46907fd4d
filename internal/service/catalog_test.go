package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newTestCatalogService() (*CatalogService, *mockProductRepository, *mockProductCache) {
	repo := new(mockProductRepository)
	c := new(mockProductCache)
	svc := NewCatalogService(repo, c, newTestLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, c
}

// --- ListProducts ---

func TestListProducts_PageResolution(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		rawPage   string
		wantPage  int
		wantPages int
	}{
		{"first page", 20, "", 1, 3},
		{"explicit page", 20, "3", 3, 3},
		{"not an integer", 20, "abc", 1, 3},
		{"zero", 20, "0", 1, 3},
		{"past the end", 20, "4", 1, 3},
		{"empty catalog", 0, "2", 1, 1},
		{"exact multiple", 16, "2", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestCatalogService()
			ctx := context.Background()

			repo.On("Count", ctx, "phone").Return(tt.total, nil)
			repo.On("List", ctx, repository.ProductFilter{
				Keyword: "phone",
				Sort:    domain.ProductSort{Field: domain.SortByPrice, Desc: true},
				Page:    tt.wantPage,
				PerPage: 8,
			}).Return([]domain.Product{}, nil)

			page, err := svc.ListProducts(ctx, ListProductsInput{
				Keyword: "phone",
				SortBy:  "price",
				Order:   "desc",
				Page:    tt.rawPage,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPages, page.Pages)
			repo.AssertExpectations(t)
		})
	}
}

func TestListProducts_CountError(t *testing.T) {
	svc, repo, _ := newTestCatalogService()
	repo.On("Count", mock.Anything, "").Return(0, errors.New("db down"))

	_, err := svc.ListProducts(context.Background(), ListProductsInput{})

	require.Error(t, err)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

// --- GetProduct ---

func TestGetProduct_CacheHit(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	detail := &domain.ProductDetail{Product: domain.Product{ID: "p-1"}}
	c.On("Get", mock.Anything, "p-1").Return(detail, nil)

	got, err := svc.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.Same(t, detail, got)
	repo.AssertNotCalled(t, "GetDetail", mock.Anything, mock.Anything)
}

func TestGetProduct_CacheMissFillsCache(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	detail := &domain.ProductDetail{Product: domain.Product{ID: "p-1"}}
	c.On("Get", mock.Anything, "p-1").Return(nil, nil)
	repo.On("GetDetail", mock.Anything, "p-1").Return(detail, nil)
	c.On("Set", mock.Anything, detail).Return(nil)

	got, err := svc.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.Same(t, detail, got)
	c.AssertExpectations(t)
}

func TestGetProduct_CacheErrorFallsThrough(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	detail := &domain.ProductDetail{Product: domain.Product{ID: "p-1"}}
	c.On("Get", mock.Anything, "p-1").Return(nil, errors.New("redis down"))
	repo.On("GetDetail", mock.Anything, "p-1").Return(detail, nil)
	c.On("Set", mock.Anything, detail).Return(errors.New("redis down"))

	got, err := svc.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	c.On("Get", mock.Anything, "nope").Return(nil, nil)
	repo.On("GetDetail", mock.Anything, "nope").Return(nil, apperrors.NotFound("product", "nope"))

	_, err := svc.GetProduct(context.Background(), "nope")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

// --- Administration ---

func TestCreateProduct_DefaultsName(t *testing.T) {
	svc, repo, _ := newTestCatalogService()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	p, err := svc.CreateProduct(context.Background(), &ProductInput{Price: dec("0")})

	require.NoError(t, err)
	assert.Equal(t, "Sample Name", p.Name)
	assert.Equal(t, "sample-name", p.Slug)
	assert.True(t, p.Rating.IsZero())
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	svc, repo, _ := newTestCatalogService()

	_, err := svc.CreateProduct(context.Background(), &ProductInput{Name: "x", Price: dec("-1")})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateProduct(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	ctx := context.Background()
	existing := &domain.Product{ID: "p-1", Name: "Old", Slug: "old", Rating: dec("4.5"), NumReviews: 2}

	repo.On("GetByID", ctx, "p-1").Return(existing, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)
	c.On("Invalidate", ctx, []string{"p-1"}).Return(nil)

	p, err := svc.UpdateProduct(ctx, "p-1", &ProductInput{
		Name:         "Crème Brûlée Set",
		Price:        dec("19.99"),
		CountInStock: 4,
	})

	require.NoError(t, err)
	assert.Equal(t, "creme-brulee-set", p.Slug)
	assert.Equal(t, 4, p.CountInStock)
	assert.Equal(t, 2, p.NumReviews)
	assert.True(t, dec("4.5").Equal(p.Rating))
	c.AssertExpectations(t)
}

func TestDeleteProduct(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	repo.On("Delete", mock.Anything, "p-1").Return(nil)
	c.On("Invalidate", mock.Anything, []string{"p-1"}).Return(nil)

	require.NoError(t, svc.DeleteProduct(context.Background(), "p-1"))
	c.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	repo.On("Delete", mock.Anything, "p-1").Return(apperrors.NotFound("product", "p-1"))

	err := svc.DeleteProduct(context.Background(), "p-1")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestReorderMedia(t *testing.T) {
	svc, repo, c := newTestCatalogService()
	media := []domain.ProductMedia{{ID: "m-2", Position: 0}, {ID: "m-1", Position: 1}}
	repo.On("ReorderMedia", mock.Anything, "p-1", []string{"m-2", "m-1"}).Return(media, nil)
	c.On("Invalidate", mock.Anything, []string{"p-1"}).Return(nil)

	got, err := svc.ReorderMedia(context.Background(), "p-1", []string{"m-2", "m-1"})

	require.NoError(t, err)
	assert.Equal(t, media, got)
}
