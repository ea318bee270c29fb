// Package seed populates empty collections with demo data on first run.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jscorp/hostpanel/internal/domain"
	"github.com/jscorp/hostpanel/internal/store"
)

// Result counts the records each SeedAll call inserted.
type Result struct {
	Packages      int `json:"packages"`
	Customers     int `json:"customers"`
	Orders        int `json:"orders"`
	SkippedOrders int `json:"skipped_orders"`
}

// Seeder inserts fixtures through the record store so every seeded record
// gets a generated id and timestamps.
type Seeder struct {
	packages  *store.PackageCollection
	customers *store.CustomerCollection
	orders    *store.OrderCollection
}

// NewSeeder creates a Seeder over s.
func NewSeeder(s *store.Store) *Seeder {
	return &Seeder{
		packages:  store.PackagesOf(s),
		customers: store.CustomersOf(s),
		orders:    store.OrdersOf(s),
	}
}

// SeedAll fills each of packages, customers and orders from fx if that
// collection is empty. Collections that already hold records are left alone,
// so calling SeedAll again is a no-op.
func (sd *Seeder) SeedAll(ctx context.Context, fx Fixtures) (Result, error) {
	var res Result

	n, err := seedCollection(ctx, sd.packages, fx.Packages)
	if err != nil {
		return res, err
	}
	res.Packages = n

	n, err = seedCollection(ctx, sd.customers, fx.Customers)
	if err != nil {
		return res, err
	}
	res.Customers = n

	res.Orders, res.SkippedOrders, err = sd.seedOrders(ctx, fx.Orders)
	if err != nil {
		return res, err
	}

	if res.Packages+res.Customers+res.Orders > 0 {
		slog.Info("Seeded demo data",
			"packages", res.Packages,
			"customers", res.Customers,
			"orders", res.Orders,
			"skipped_orders", res.SkippedOrders)
	}
	return res, nil
}

func seedCollection[T any, P store.Entity[T]](ctx context.Context, c *store.Collection[T, P], items []T) (int, error) {
	existing, err := c.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, item := range items {
		if _, err := c.Create(ctx, item); err != nil {
			return i, fmt.Errorf("seed %s[%d]: %w", c.Name(), i, err)
		}
	}
	return len(items), nil
}

// seedOrders resolves each fixture's package and customer and creates the
// order. Fixtures whose references do not resolve are skipped.
func (sd *Seeder) seedOrders(ctx context.Context, fixtures []OrderFixture) (created, skipped int, err error) {
	existing, err := sd.orders.GetAll(ctx)
	if err != nil || len(existing) > 0 {
		return 0, 0, err
	}

	packages, err := sd.packages.GetAll(ctx)
	if err != nil {
		return 0, 0, err
	}
	customers, err := sd.customers.GetAll(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(packages) == 0 || len(customers) == 0 {
		return 0, 0, nil
	}

	byName := make(map[string]*domain.Package, len(packages))
	for i := range packages {
		key := strings.ToLower(packages[i].Name)
		if _, dup := byName[key]; !dup {
			byName[key] = &packages[i]
		}
	}
	byEmail := make(map[string]*domain.Customer, len(customers))
	for i := range customers {
		key := strings.ToLower(customers[i].Email)
		if _, dup := byEmail[key]; !dup {
			byEmail[key] = &customers[i]
		}
	}

	for _, f := range fixtures {
		pkg, customer := byName[strings.ToLower(f.PackageName)], byEmail[strings.ToLower(f.CustomerEmail)]
		if pkg == nil || customer == nil {
			slog.Warn("Skipping seed order with unresolved reference",
				"order_number", f.OrderNumber,
				"package", f.PackageName,
				"customer", f.CustomerEmail)
			skipped++
			continue
		}
		amount, ok := pkg.PriceFor(f.BillingCycle)
		if !ok {
			slog.Warn("Skipping seed order with unknown billing cycle",
				"order_number", f.OrderNumber,
				"billing_cycle", f.BillingCycle)
			skipped++
			continue
		}
		order := domain.Order{
			OrderNumber:  f.OrderNumber,
			CustomerID:   customer.ID,
			PackageID:    pkg.ID,
			BillingCycle: f.BillingCycle,
			Amount:       amount,
			Status:       f.Status,
			StartDate:    f.StartDate,
			EndDate:      f.EndDate,
		}
		if _, err := sd.orders.Create(ctx, order); err != nil {
			return created, skipped, fmt.Errorf("seed order %s: %w", f.OrderNumber, err)
		}
		created++
	}
	return created, skipped, nil
}
