package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Review is a user's rating of a product. ProductID and UserID become nil
// when the product or the upstream account is deleted.
type Review struct {
	ID        string    `json:"id"`
	ProductID *string   `json:"product_id"`
	UserID    *string   `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// MeanRating returns sum/count rounded to two decimal places, or zero when
// there are no ratings.
func MeanRating(sum, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(sum)).
		DivRound(decimal.NewFromInt(int64(count)), 2)
}
