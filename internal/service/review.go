package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/cache"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CreateReviewInput holds the parameters for reviewing a product. A nil
// Rating means none was submitted.
type CreateReviewInput struct {
	ProductID string
	UserID    string
	Name      string
	Rating    *int
	Comment   string
}

// ReviewService implements review submission and rating aggregation.
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	cache    cache.ProductCache
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	productCache cache.ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		cache:    productCache,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateReview stores the review and recomputes the product's review count
// and mean rating. Checks run in order: product exists, no earlier review by
// the same user, rating selected and within 1..5.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, *domain.Product, error) {
	if input.UserID == "" {
		return nil, nil, apperrors.InvalidInput("user_id is required")
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, nil, fmt.Errorf("get product: %w", err)
	}

	exists, err := s.reviews.Exists(ctx, input.ProductID, input.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, nil, repository.ErrDuplicateReview
	}

	if input.Rating == nil || *input.Rating == 0 {
		return nil, nil, apperrors.BadRequest("INVALID_RATING", "please select a rating")
	}
	if *input.Rating < domain.MinRating || *input.Rating > domain.MaxRating {
		return nil, nil, apperrors.BadRequest("INVALID_RATING", "rating must be between 1 and 5")
	}

	productID, userID := input.ProductID, input.UserID
	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: &productID,
		UserID:    &userID,
		Name:      input.Name,
		Rating:    *input.Rating,
		Comment:   input.Comment,
		CreatedAt: s.now(),
	}

	product, err := s.reviews.Create(ctx, review)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create review: %w", err)
	}
	reviewsCreated.Inc()

	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishReviewCreated(ctx, review, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", productID),
		slog.String("user_id", userID),
		slog.Int("rating", review.Rating),
		slog.Int("num_reviews", product.NumReviews),
	)
	return review, product, nil
}
