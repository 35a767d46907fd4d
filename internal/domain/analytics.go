package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Analytics window defaults, in days.
const (
	DefaultAnalyticsDays = 30
	AllHistoryDays       = 3650
)

// ParseAnalyticsDays resolves the days query value. Missing or non-integer
// input yields the default window; non-positive input covers all history.
func ParseAnalyticsDays(raw string) int {
	days, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultAnalyticsDays
	}
	if days <= 0 {
		return AllHistoryDays
	}
	return days
}

// AnalyticsSince returns the start of a days-long window ending at now.
func AnalyticsSince(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// OrderSummary is the per-order row of the analytics report.
type OrderSummary struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	IsPaid      bool            `json:"is_paid"`
	IsDelivered bool            `json:"is_delivered"`
}

// AnalyticsTotals are the aggregates over the report window.
type AnalyticsTotals struct {
	Sales          decimal.Decimal `json:"sales"`
	PaidCount      int             `json:"paid_count"`
	DeliveredCount int             `json:"delivered_count"`
	LowStockCount  int             `json:"low_stock_count"`
}

// Analytics is the sales dashboard report.
type Analytics struct {
	Days   int             `json:"days"`
	Items  []OrderSummary  `json:"items"`
	Totals AnalyticsTotals `json:"totals"`
}

// Summarize folds the window's orders into a report. lowStock is counted
// independently of the window.
func Summarize(days int, orders []OrderSummary, lowStock int) *Analytics {
	if orders == nil {
		orders = []OrderSummary{}
	}
	totals := AnalyticsTotals{Sales: decimal.Zero, LowStockCount: lowStock}
	for _, o := range orders {
		totals.Sales = totals.Sales.Add(o.TotalPrice)
		if o.IsPaid {
			totals.PaidCount++
		}
		if o.IsDelivered {
			totals.DeliveredCount++
		}
	}
	return &Analytics{Days: days, Items: orders, Totals: totals}
}
