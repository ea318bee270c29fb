package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func ptr[V any](v V) *V { return &v }

func validOrder() Order {
	return Order{
		OrderNumber:  "ORD-20260201-001",
		CustomerID:   "id_1",
		PackageID:    "id_2",
		BillingCycle: CycleYearly,
		Amount:       336000,
		Status:       StatusActive,
		StartDate:    "2026-02-01",
		EndDate:      "2027-02-01",
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr bool
	}{
		{"valid", func(*Order) {}, false},
		{"missing order number", func(o *Order) { o.OrderNumber = " " }, true},
		{"unknown cycle", func(o *Order) { o.BillingCycle = "weekly" }, true},
		{"missing status", func(o *Order) { o.Status = "" }, true},
		{"status outside known set", func(o *Order) { o.Status = "expired" }, false},
		{"suspended allowed", func(o *Order) { o.Status = StatusSuspended }, false},
		{"negative amount", func(o *Order) { o.Amount = -1 }, true},
		{"bad date", func(o *Order) { o.StartDate = "01/02/2026" }, true},
		{"end before start", func(o *Order) { o.EndDate = "2025-01-01" }, true},
		{"dates optional", func(o *Order) { o.StartDate, o.EndDate = "", "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestCustomerValidate(t *testing.T) {
	c := Customer{Name: "Budi Santoso", Email: "budi@techstartup.id", Status: StatusActive}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	c.Email = "not-an-email"
	if err := c.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("bad email: got %v", err)
	}

	c.Email = "budi@techstartup.id"
	c.Status = StatusPending
	if err := c.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("pending customer: got %v", err)
	}
}

func TestPackagePatchApply(t *testing.T) {
	p := Package{Name: "Starter", PriceMonthly: 15000, PriceYearly: 144000, Features: []string{"SSL"}, Status: StatusActive}

	features := []string{"SSL", "Backup"}
	err := PackagePatch{PriceMonthly: ptr(int64(20000)), Features: &features}.Apply(&p)
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if p.PriceMonthly != 20000 || p.PriceYearly != 144000 || p.Name != "Starter" {
		t.Errorf("unexpected merge result: %+v", p)
	}
	features[0] = "mutated"
	if p.Features[0] != "SSL" {
		t.Error("patch features slice is aliased into the package")
	}
}

func TestPackagePatchRejectsInvalid(t *testing.T) {
	p := Package{Name: "Starter", PriceMonthly: 15000, Status: StatusActive}

	err := PackagePatch{Name: ptr(""), PriceMonthly: ptr(int64(99))}.Apply(&p)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Apply() = %v, want ErrValidation", err)
	}
	if p.Name != "Starter" || p.PriceMonthly != 15000 {
		t.Errorf("package changed despite failed patch: %+v", p)
	}
}

func TestOrderPatchKeepsUnsetFields(t *testing.T) {
	o := validOrder()
	if err := (OrderPatch{Status: ptr(StatusCancelled)}).Apply(&o); err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	want := validOrder()
	want.Status = StatusCancelled
	if o != want {
		t.Errorf("got %+v, want %+v", o, want)
	}
}

func TestPriceFor(t *testing.T) {
	p := Package{PriceMonthly: 35000, PriceYearly: 336000}
	if got, ok := p.PriceFor(CycleYearly); !ok || got != 336000 {
		t.Errorf("yearly = %d, %v", got, ok)
	}
	if _, ok := p.PriceFor("daily"); ok {
		t.Error("daily should not resolve")
	}
}

func TestRecordFieldsFlattenInJSON(t *testing.T) {
	c := Customer{Record: Record{ID: "id_1", CreatedAt: "2026-02-01T00:00:00.000Z"}, Name: "Siti"}
	raw, err := json.Marshal(&c)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m["id"] != "id_1" || m["created_at"] != "2026-02-01T00:00:00.000Z" {
		t.Errorf("record header not flattened: %s", raw)
	}
}
