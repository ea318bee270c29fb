// Package stats derives dashboard aggregates and the recent-activity feed
// from the record store. Nothing is cached; every call rereads the
// collections.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/jscorp/hostpanel/internal/domain"
	"github.com/jscorp/hostpanel/internal/store"
)

// DefaultActivityLimit is used when GetRecentActivity is asked for a
// non-positive number of entries.
const DefaultActivityLimit = 5

// UnknownLabel replaces the name of a customer or package an order no longer
// resolves to.
const UnknownLabel = "Unknown"

// Stats are the dashboard counters.
type Stats struct {
	TotalPackages   int   `json:"total_packages"`
	TotalCustomers  int   `json:"total_customers"`
	TotalOrders     int   `json:"total_orders"`
	ActiveOrders    int   `json:"active_orders"`
	TotalRevenue    int64 `json:"total_revenue"`
	ActiveCustomers int   `json:"active_customers"`
}

// Activity is an order with its customer and package names inlined.
type Activity struct {
	domain.Order
	CustomerName string `json:"customer_name"`
	PackageName  string `json:"package_name"`
}

// Aggregator computes Stats and Activity over a store.
type Aggregator struct {
	packages  *store.PackageCollection
	customers *store.CustomerCollection
	orders    *store.OrderCollection
}

// New creates an Aggregator over s.
func New(s *store.Store) *Aggregator {
	return &Aggregator{
		packages:  store.PackagesOf(s),
		customers: store.CustomersOf(s),
		orders:    store.OrdersOf(s),
	}
}

// GetStats counts records and sums revenue over active orders.
func (a *Aggregator) GetStats(ctx context.Context) (Stats, error) {
	packages, err := a.packages.GetAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	customers, err := a.customers.GetAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	orders, err := a.orders.GetAll(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		TotalPackages:  len(packages),
		TotalCustomers: len(customers),
		TotalOrders:    len(orders),
	}
	for _, o := range orders {
		if o.Status == domain.StatusActive {
			st.ActiveOrders++
			st.TotalRevenue += o.Amount
		}
	}
	for _, c := range customers {
		if c.Status == domain.StatusActive {
			st.ActiveCustomers++
		}
	}
	return st, nil
}

// GetRecentActivity returns up to limit orders, newest first by created_at.
// Orders with equal timestamps keep their stored order.
func (a *Aggregator) GetRecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	orders, err := a.orders.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := a.customers.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	packages, err := a.packages.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	created := make([]time.Time, len(orders))
	idx := make([]int, len(orders))
	for i, o := range orders {
		idx[i] = i
		created[i] = parseTimestamp(o.CreatedAt)
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return created[idx[i]].After(created[idx[j]])
	})
	if len(idx) > limit {
		idx = idx[:limit]
	}

	customerNames := make(map[string]string, len(customers))
	for _, c := range customers {
		if _, dup := customerNames[c.ID]; !dup {
			customerNames[c.ID] = c.Name
		}
	}
	packageNames := make(map[string]string, len(packages))
	for _, p := range packages {
		if _, dup := packageNames[p.ID]; !dup {
			packageNames[p.ID] = p.Name
		}
	}

	out := make([]Activity, 0, len(idx))
	for _, i := range idx {
		o := orders[i]
		out = append(out, Activity{
			Order:        o,
			CustomerName: labelOr(customerNames, o.CustomerID),
			PackageName:  labelOr(packageNames, o.PackageID),
		})
	}
	return out, nil
}

func labelOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return UnknownLabel
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds.
// Unparseable values sort as the zero time, after everything else.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
