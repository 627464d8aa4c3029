package admindashboard

import (
	"context"

	"storefront/internal/domain/orders"
)

type Overview struct {
	TotalRevenue   float64               `json:"totalRevenue"`
	TotalOrders    int64                 `json:"totalOrders"`
	TotalCustomers int64                 `json:"totalCustomers"`
	TotalProducts  int64                 `json:"totalProducts"`
	Year           int                   `json:"year"`
	SalesPerMonth  []orders.MonthlySales `json:"salesPerMonth"`
}

type Store interface {
	GetOverview(ctx context.Context, year int) (*Overview, error)
}
