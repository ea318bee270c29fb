package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jscorp/hostpanel/internal/domain"
)

// Fixtures is the demo data inserted into empty collections.
type Fixtures struct {
	Packages  []domain.Package  `json:"packages"`
	Customers []domain.Customer `json:"customers"`
	Orders    []OrderFixture    `json:"orders"`
}

// OrderFixture describes a seeded order. The package and customer are
// referenced by package name and customer email, and resolved to ids at seed
// time. The amount is the package price for the billing cycle.
type OrderFixture struct {
	OrderNumber   string `json:"order_number"`
	CustomerEmail string `json:"customer_email"`
	PackageName   string `json:"package_name"`
	BillingCycle  string `json:"billing_cycle"`
	Status        string `json:"status"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

// LoadFixtures reads fixtures from a JSON file.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("failed to read fixtures file: %w", err)
	}
	var fx Fixtures
	if err := json.Unmarshal(data, &fx); err != nil {
		return Fixtures{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return fx, nil
}

// DefaultFixtures returns the built-in demo catalog, customers and orders.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Packages: []domain.Package{
			{
				Name:         "Starter",
				PriceMonthly: 15000,
				PriceYearly:  144000,
				Storage:      "1 GB SSD",
				Bandwidth:    "Unlimited",
				Websites:     1,
				Email:        "1 Email Account",
				SSL:          true,
				Domain:       false,
				Support:      "24/7",
				Features:     []string{"1 GB SSD Storage", "Unlimited Bandwidth", "1 Website", "SSL Gratis", "Email Account", "Support 24/7"},
				Status:       domain.StatusActive,
			},
			{
				Name:         "Professional",
				PriceMonthly: 35000,
				PriceYearly:  336000,
				Storage:      "5 GB SSD",
				Bandwidth:    "Unlimited",
				Websites:     5,
				Email:        "Unlimited",
				SSL:          true,
				Domain:       true,
				Support:      "Priority 24/7",
				Features:     []string{"5 GB SSD Storage", "Unlimited Bandwidth", "5 Website", "SSL Gratis", "Unlimited Email", "Domain Gratis (.com/.id)", "Support Priority 24/7"},
				Status:       domain.StatusActive,
			},
			{
				Name:         "Business",
				PriceMonthly: 75000,
				PriceYearly:  720000,
				Storage:      "15 GB SSD",
				Bandwidth:    "Unlimited",
				Websites:     999,
				Email:        "Unlimited",
				SSL:          true,
				Domain:       true,
				Support:      "VIP 24/7",
				Features:     []string{"15 GB SSD Storage", "Unlimited Bandwidth", "Unlimited Website", "SSL Gratis", "Unlimited Email", "Domain Gratis (.com/.id)", "Dedicated IP", "Support VIP 24/7"},
				Status:       domain.StatusActive,
			},
		},
		Customers: []domain.Customer{
			{Name: "Budi Santoso", Email: "budi@techstartup.id", Phone: "08123456789", Company: "TechStartup.id", Address: "Jakarta, Indonesia", Status: domain.StatusActive},
			{Name: "Siti Nurhaliza", Email: "siti@blogger.com", Phone: "08234567890", Company: "Personal Blog", Address: "Bandung, Indonesia", Status: domain.StatusActive},
			{Name: "Andi Wijaya", Email: "andi@webdev.com", Phone: "08345678901", Company: "Web Developer Freelance", Address: "Surabaya, Indonesia", Status: domain.StatusActive},
			{Name: "Dewi Lestari", Email: "dewi@onlineshop.com", Phone: "08456789012", Company: "Dewi Online Shop", Address: "Yogyakarta, Indonesia", Status: domain.StatusActive},
			{Name: "Rudi Hartono", Email: "rudi@company.com", Phone: "08567890123", Company: "PT Digital Solutions", Address: "Semarang, Indonesia", Status: domain.StatusInactive},
		},
		Orders: []OrderFixture{
			{OrderNumber: "ORD-20260201-001", CustomerEmail: "budi@techstartup.id", PackageName: "Professional", BillingCycle: domain.CycleYearly, Status: domain.StatusActive, StartDate: "2026-02-01", EndDate: "2027-02-01"},
			{OrderNumber: "ORD-20260205-002", CustomerEmail: "siti@blogger.com", PackageName: "Starter", BillingCycle: domain.CycleMonthly, Status: domain.StatusActive, StartDate: "2026-02-05", EndDate: "2026-03-05"},
			{OrderNumber: "ORD-20260208-003", CustomerEmail: "andi@webdev.com", PackageName: "Business", BillingCycle: domain.CycleYearly, Status: domain.StatusActive, StartDate: "2026-02-08", EndDate: "2027-02-08"},
			{OrderNumber: "ORD-20260210-004", CustomerEmail: "dewi@onlineshop.com", PackageName: "Professional", BillingCycle: domain.CycleMonthly, Status: domain.StatusPending, StartDate: "2026-02-10", EndDate: "2026-03-10"},
			{OrderNumber: "ORD-20260112-005", CustomerEmail: "rudi@company.com", PackageName: "Starter", BillingCycle: domain.CycleMonthly, Status: domain.StatusCancelled, StartDate: "2026-01-12", EndDate: "2026-02-12"},
		},
	}
}
