package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ProductHandler handles HTTP requests for catalog and review endpoints.
type ProductHandler struct {
	catalog *service.CatalogService
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(catalog *service.CatalogService, reviews *service.ReviewService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		reviews: reviews,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ProductRequest is the JSON body for creating or updating a product.
type ProductRequest struct {
	Name         string          `json:"name" validate:"max=200"`
	Description  string          `json:"description"`
	Image        string          `json:"image" validate:"max=500"`
	Price        decimal.Decimal `json:"price" validate:"gte=0"`
	CountInStock int             `json:"count_in_stock"`
}

func (req *ProductRequest) toInput() *service.ProductInput {
	return &service.ProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Image:        req.Image,
		Price:        req.Price,
		CountInStock: req.CountInStock,
	}
}

// ReorderMediaRequest lists media IDs in their new display order.
type ReorderMediaRequest struct {
	Order []string `json:"order" validate:"dive,uuid"`
}

// CreateReviewRequest is the JSON body for reviewing a product. Rating is
// checked by the service so a missing rating gets its own message.
type CreateReviewRequest struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewResponse is returned after a review is stored.
type ReviewResponse struct {
	Detail     string          `json:"detail"`
	Review     *domain.Review  `json:"review"`
	NumReviews int             `json:"num_reviews"`
	Rating     decimal.Decimal `json:"rating"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Detail string `json:"detail"`
}

// --- Handlers ---

// ListProducts handles GET /api/products/
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.catalog.ListProducts(r.Context(), service.ListProductsInput{
		Keyword: q.Get("keyword"),
		SortBy:  q.Get("sort_by"),
		Order:   q.Get("order"),
		Page:    q.Get("page"),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, page)
}

// GetProduct handles GET /api/products/{id}/
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	detail, err := h.catalog.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, detail)
}

// CreateProduct handles POST /api/products/
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id}/
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id.String(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}/
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, MessageResponse{Detail: "Product deleted successfully"})
}

// ReorderMedia handles PUT /api/products/{id}/media/order/
func (h *ProductHandler) ReorderMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ReorderMediaRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	media, err := h.catalog.ReorderMedia(r.Context(), id.String(), req.Order)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if media == nil {
		media = []domain.ProductMedia{}
	}
	httputil.WriteData(w, http.StatusOK, media)
}

// CreateReview handles POST /api/products/{id}/reviews/
func (h *ProductHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateReviewRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	review, product, err := h.reviews.CreateReview(r.Context(), &service.CreateReviewInput{
		ProductID: id.String(),
		UserID:    claims.UserID,
		Name:      claims.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, ReviewResponse{
		Detail:     "Review added successfully",
		Review:     review,
		NumReviews: product.NumReviews,
		Rating:     product.Rating,
	})
}
