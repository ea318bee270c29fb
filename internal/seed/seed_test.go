package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jscorp/hostpanel/internal/domain"
	"github.com/jscorp/hostpanel/internal/kv/kvtest"
	"github.com/jscorp/hostpanel/internal/store"
)

func newSeeder(t *testing.T) (*Seeder, *store.Store) {
	t.Helper()
	s := store.New(kvtest.New())
	return NewSeeder(s), s
}

func TestSeedAll_DefaultFixtures(t *testing.T) {
	sd, s := newSeeder(t)
	ctx := context.Background()

	res, err := sd.SeedAll(ctx, DefaultFixtures())
	if err != nil {
		t.Fatalf("SeedAll() error = %v", err)
	}
	if res != (Result{Packages: 3, Customers: 5, Orders: 5}) {
		t.Fatalf("SeedAll() = %+v", res)
	}

	packages, _ := store.PackagesOf(s).GetAll(ctx)
	customers, _ := store.CustomersOf(s).GetAll(ctx)
	orders, _ := store.OrdersOf(s).GetAll(ctx)

	pkgByID := map[string]domain.Package{}
	for _, p := range packages {
		pkgByID[p.ID] = p
	}
	custByID := map[string]domain.Customer{}
	for _, c := range customers {
		custByID[c.ID] = c
	}

	want := []struct {
		number   string
		customer string
		pkg      string
		amount   int64
		status   string
	}{
		{"ORD-20260201-001", "Budi Santoso", "Professional", 336000, domain.StatusActive},
		{"ORD-20260205-002", "Siti Nurhaliza", "Starter", 15000, domain.StatusActive},
		{"ORD-20260208-003", "Andi Wijaya", "Business", 720000, domain.StatusActive},
		{"ORD-20260210-004", "Dewi Lestari", "Professional", 35000, domain.StatusPending},
		{"ORD-20260112-005", "Rudi Hartono", "Starter", 15000, domain.StatusCancelled},
	}
	if len(orders) != len(want) {
		t.Fatalf("got %d orders, want %d", len(orders), len(want))
	}
	for i, w := range want {
		o := orders[i]
		if o.OrderNumber != w.number || o.Amount != w.amount || o.Status != w.status {
			t.Errorf("order[%d] = %+v", i, o)
		}
		if got := custByID[o.CustomerID].Name; got != w.customer {
			t.Errorf("order %s customer = %q, want %q", o.OrderNumber, got, w.customer)
		}
		if got := pkgByID[o.PackageID].Name; got != w.pkg {
			t.Errorf("order %s package = %q, want %q", o.OrderNumber, got, w.pkg)
		}
	}
}

func TestSeedAll_Idempotent(t *testing.T) {
	sd, s := newSeeder(t)
	ctx := context.Background()

	if _, err := sd.SeedAll(ctx, DefaultFixtures()); err != nil {
		t.Fatal(err)
	}
	res, err := sd.SeedAll(ctx, DefaultFixtures())
	if err != nil {
		t.Fatal(err)
	}
	if res != (Result{}) {
		t.Errorf("second SeedAll() = %+v, want no inserts", res)
	}
	orders, _ := store.OrdersOf(s).GetAll(ctx)
	if len(orders) != 5 {
		t.Errorf("got %d orders after reseed, want 5", len(orders))
	}
}

func TestSeedAll_OnlyEmptyCollections(t *testing.T) {
	sd, s := newSeeder(t)
	ctx := context.Background()

	existing := domain.Customer{Name: "Existing", Email: "existing@example.com", Status: domain.StatusActive}
	if _, err := store.CustomersOf(s).Create(ctx, existing); err != nil {
		t.Fatal(err)
	}

	res, err := sd.SeedAll(ctx, DefaultFixtures())
	if err != nil {
		t.Fatal(err)
	}
	if res.Packages != 3 || res.Customers != 0 {
		t.Errorf("SeedAll() = %+v", res)
	}
	// The fixture orders reference seeded emails that are not present.
	if res.Orders != 0 || res.SkippedOrders != 5 {
		t.Errorf("orders = %d, skipped = %d; want 0, 5", res.Orders, res.SkippedOrders)
	}
}

func TestSeedAll_OrdersNoOpWithoutPackages(t *testing.T) {
	sd, s := newSeeder(t)
	fx := DefaultFixtures()
	fx.Packages = nil

	res, err := sd.SeedAll(context.Background(), fx)
	if err != nil {
		t.Fatalf("SeedAll() error = %v", err)
	}
	if res.Orders != 0 || res.SkippedOrders != 0 {
		t.Errorf("SeedAll() = %+v, want orders step skipped", res)
	}
	orders, _ := store.OrdersOf(s).GetAll(context.Background())
	if len(orders) != 0 {
		t.Errorf("got %d orders", len(orders))
	}
}

func TestSeedAll_SkipsUnresolvedReferences(t *testing.T) {
	sd, _ := newSeeder(t)
	fx := DefaultFixtures()
	fx.Orders = append(fx.Orders,
		OrderFixture{OrderNumber: "ORD-X", CustomerEmail: "nobody@example.com", PackageName: "Starter", BillingCycle: domain.CycleMonthly, Status: domain.StatusActive},
		OrderFixture{OrderNumber: "ORD-Y", CustomerEmail: "budi@techstartup.id", PackageName: "Enterprise", BillingCycle: domain.CycleMonthly, Status: domain.StatusActive},
		OrderFixture{OrderNumber: "ORD-Z", CustomerEmail: "budi@techstartup.id", PackageName: "Starter", BillingCycle: "weekly", Status: domain.StatusActive},
	)

	res, err := sd.SeedAll(context.Background(), fx)
	if err != nil {
		t.Fatalf("SeedAll() error = %v", err)
	}
	if res.Orders != 5 || res.SkippedOrders != 3 {
		t.Errorf("SeedAll() = %+v", res)
	}
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	content := `{
		"packages": [{"name": "Mini", "price_monthly": 5000, "price_yearly": 50000, "status": "active"}],
		"customers": [{"name": "Tono", "email": "tono@example.com", "status": "active"}],
		"orders": [{"order_number": "ORD-1", "customer_email": "TONO@example.com", "package_name": "mini", "billing_cycle": "yearly", "status": "active", "start_date": "2026-03-01", "end_date": "2027-03-01"}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fx, err := LoadFixtures(path)
	if err != nil {
		t.Fatalf("LoadFixtures() error = %v", err)
	}

	sd, s := newSeeder(t)
	res, err := sd.SeedAll(context.Background(), fx)
	if err != nil {
		t.Fatal(err)
	}
	if res != (Result{Packages: 1, Customers: 1, Orders: 1}) {
		t.Fatalf("SeedAll() = %+v", res)
	}
	orders, _ := store.OrdersOf(s).GetAll(context.Background())
	if orders[0].Amount != 50000 {
		t.Errorf("amount = %d, want yearly price 50000", orders[0].Amount)
	}
}

func TestLoadFixtures_Errors(t *testing.T) {
	if _, err := LoadFixtures(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixtures(path); err == nil {
		t.Error("expected error for malformed file")
	}
}
