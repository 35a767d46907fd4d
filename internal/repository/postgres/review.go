package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const (
	reviewExistsSQL = `SELECT EXISTS (SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`

	insertReviewSQL = `
		INSERT INTO reviews (id, product_id, user_id, name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	reviewStatsSQL = `SELECT count(*), COALESCE(sum(rating), 0) FROM reviews WHERE product_id = $1`

	updateProductRatingSQL = `
		UPDATE products
		SET num_reviews = $2, rating = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Exists reports whether the user already reviewed the product.
func (r *ReviewRepository) Exists(ctx context.Context, productID, userID string) (exists bool, err error) {
	ctx, end := database.TraceQuery(ctx, "ReviewExists", reviewExistsSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, reviewExistsSQL, productID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}

// Create inserts the review and recomputes the product's rating aggregate
// from every review it has.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (*domain.Product, error) {
	if review.ProductID == nil || review.UserID == nil {
		return nil, apperrors.InvalidInput("review requires a product and a user")
	}
	productID, userID := *review.ProductID, *review.UserID

	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewSQL)
	product := &domain.Product{}

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx, reviewExistsSQL, productID, userID).Scan(&exists); err != nil {
			return fmt.Errorf("check review exists: %w", err)
		}
		if exists {
			return repository.ErrDuplicateReview
		}

		if _, err := tx.Exec(ctx, insertReviewSQL,
			review.ID,
			productID,
			userID,
			review.Name,
			review.Rating,
			review.Comment,
			review.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}

		var count, sum int
		if err := tx.QueryRow(ctx, reviewStatsSQL, productID).Scan(&count, &sum); err != nil {
			return fmt.Errorf("compute review stats: %w", err)
		}

		row := tx.QueryRow(ctx, updateProductRatingSQL, productID, count, domain.MeanRating(sum, count))
		if err := scanProduct(row, product); err != nil {
			return fmt.Errorf("update product rating: %w", err)
		}
		return nil
	})
	end(err)
	if err != nil {
		return nil, err
	}
	return product, nil
}
