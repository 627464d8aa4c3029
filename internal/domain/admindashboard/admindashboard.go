package admindashboard

import (
	"context"
	"fmt"

	"storefront/internal/domain/orders"
)

type orderStats interface {
	Count(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	SalesPerMonth(ctx context.Context, year int) ([]orders.MonthlySales, error)
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

// Repository composes the dashboard widgets from the per-collection stores.
type Repository struct {
	orders    orderStats
	customers counter
	products  counter
}

func NewRepository(o orderStats, customers, products counter) Store {
	return &Repository{orders: o, customers: customers, products: products}
}

func (r *Repository) GetOverview(ctx context.Context, year int) (*Overview, error) {
	var (
		o   = Overview{Year: year}
		err error
	)

	if o.TotalRevenue, err = r.orders.TotalRevenue(ctx); err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}
	if o.TotalOrders, err = r.orders.Count(ctx); err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}
	if o.TotalCustomers, err = r.customers.Count(ctx); err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}
	if o.TotalProducts, err = r.products.Count(ctx); err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}
	if o.SalesPerMonth, err = r.orders.SalesPerMonth(ctx, year); err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}

	return &o, nil
}
