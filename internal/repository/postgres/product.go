package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const productColumns = `id, name, slug, description, image, price, count_in_stock, rating, num_reviews, created_at, updated_at`

const (
	countProductsSQL = `SELECT count(*) FROM products WHERE name ILIKE $1`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listReviewsByProductSQL = `
		SELECT id, product_id, user_id, name, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id`

	listMediaByProductSQL = `
		SELECT id, product_id, url, alt_text, position, created_at
		FROM product_media
		WHERE product_id = $1
		ORDER BY position, id`

	insertProductSQL = `
		INSERT INTO products (id, name, slug, description, image, price, count_in_stock, rating, num_reviews, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	updateProductSQL = `
		UPDATE products
		SET name = $2, slug = $3, description = $4, image = $5, price = $6, count_in_stock = $7, updated_at = $8
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	lockProductSQL = `SELECT id FROM products WHERE id = $1 FOR UPDATE`

	setMediaPositionSQL = `UPDATE product_media SET position = $1 WHERE id = $2 AND product_id = $3`

	countLowStockSQL = `SELECT count(*) FROM products WHERE count_in_stock > 0 AND count_in_stock < $1`
)

// sortColumns whitelists the ORDER BY expressions a listing may use.
var sortColumns = map[string]string{
	domain.SortByName:   "name",
	domain.SortByPrice:  "price",
	domain.SortByRating: "rating",
}

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// containsPattern builds an ILIKE pattern matching keyword anywhere, with
// LIKE wildcards in keyword taken literally.
func containsPattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

func orderByClause(s domain.ProductSort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "name"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id ASC", col, dir)
}

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Image,
		&p.Price,
		&p.CountInStock,
		&p.Rating,
		&p.NumReviews,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// Count returns the number of products whose name contains keyword.
func (r *ProductRepository) Count(ctx context.Context, keyword string) (n int, err error) {
	ctx, end := database.TraceQuery(ctx, "CountProducts", countProductsSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, countProductsSQL, containsPattern(keyword)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// List returns one page of products matching the filter.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, err error) {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = domain.ProductPageSize
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * perPage
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE name ILIKE $1 ORDER BY ` +
		orderByClause(filter.Sort) + ` LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, containsPattern(filter.Keyword), perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err = scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// GetByID retrieves a single product.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "GetProduct", getProductSQL)
	defer func() { end(err) }()

	p = &domain.Product{}
	if err = scanProduct(r.pool.QueryRow(ctx, getProductSQL, id), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// GetDetail retrieves a product together with its reviews and media.
func (r *ProductRepository) GetDetail(ctx context.Context, id string) (*domain.ProductDetail, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := r.listReviews(ctx, id)
	if err != nil {
		return nil, err
	}

	media, err := listMedia(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}

	return &domain.ProductDetail{Product: *p, Reviews: reviews, Media: media}, nil
}

func (r *ProductRepository) listReviews(ctx context.Context, productID string) (reviews []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "ListReviews", listReviewsByProductSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listReviewsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err = rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Name,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

func listMedia(ctx context.Context, db database.DBTX, productID string) (media []domain.ProductMedia, err error) {
	ctx, end := database.TraceQuery(ctx, "ListMedia", listMediaByProductSQL)
	defer func() { end(err) }()

	rows, err := db.Query(ctx, listMediaByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	media = []domain.ProductMedia{}
	for rows.Next() {
		var m domain.ProductMedia
		if err = rows.Scan(&m.ID, &m.ProductID, &m.URL, &m.AltText, &m.Position, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media row: %w", err)
		}
		media = append(media, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media rows: %w", err)
	}
	return media, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateProduct", insertProductSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertProductSQL,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.Image,
		p.Price,
		p.CountInStock,
		p.Rating,
		p.NumReviews,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update replaces the editable fields of an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateProduct", updateProductSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.Image,
		p.Price,
		p.CountInStock,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product. Order items and reviews keep their rows with a
// null product reference; media rows are removed with it.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteProduct", deleteProductSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// ReorderMedia sets each listed media item's position to its index in
// mediaIDs and returns the product's media in the new order.
func (r *ProductRepository) ReorderMedia(ctx context.Context, productID string, mediaIDs []string) ([]domain.ProductMedia, error) {
	var media []domain.ProductMedia

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}

		for pos, id := range mediaIDs {
			if _, err := tx.Exec(ctx, setMediaPositionSQL, pos, id, productID); err != nil {
				return fmt.Errorf("set media position: %w", err)
			}
		}

		var err error
		media, err = listMedia(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return media, nil
}

// CountLowStock returns the number of products in the low-stock band.
func (r *ProductRepository) CountLowStock(ctx context.Context) (n int, err error) {
	ctx, end := database.TraceQuery(ctx, "CountLowStock", countLowStockSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, countLowStockSQL, domain.LowStockThreshold).Scan(&n); err != nil {
		return 0, fmt.Errorf("count low stock products: %w", err)
	}
	return n, nil
}

// lockProduct takes the row lock on a product for the rest of tx.
func lockProduct(ctx context.Context, tx pgx.Tx, productID string) error {
	var id string
	if err := tx.QueryRow(ctx, lockProductSQL, productID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", productID)
		}
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}
