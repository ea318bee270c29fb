package domain

import (
	"errors"
	"time"
)

// DateLayout is the calendar date format used for order start and end dates.
const DateLayout = "2006-01-02"

// Order ties a customer to a package for one billing cycle. CustomerID and
// PackageID are not checked for existence; readers tolerate dangling
// references.
type Order struct {
	Record
	OrderNumber  string `json:"order_number"`
	CustomerID   string `json:"customer_id"`
	PackageID    string `json:"package_id"`
	BillingCycle string `json:"billing_cycle"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// Validate checks required references, the billing cycle and date formats.
// Status must be present but is not restricted to the known values.
func (o *Order) Validate() error {
	var errs []error
	errs = append(errs, required("order_number", o.OrderNumber))
	errs = append(errs, required("customer_id", o.CustomerID))
	errs = append(errs, required("package_id", o.PackageID))
	errs = append(errs, oneOf("billing_cycle", o.BillingCycle, CycleMonthly, CycleYearly))
	if o.Amount < 0 {
		errs = append(errs, invalid("amount", "must not be negative"))
	}
	errs = append(errs, required("status", o.Status))
	errs = append(errs, checkDate("start_date", o.StartDate), checkDate("end_date", o.EndDate))
	if o.StartDate != "" && o.EndDate != "" && o.EndDate < o.StartDate {
		errs = append(errs, invalid("end_date", "is before start_date"))
	}
	return errors.Join(errs...)
}

func checkDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return invalid(field, "%q is not a YYYY-MM-DD date", value)
	}
	return nil
}

// OrderPatch lists the order fields an update may change.
type OrderPatch struct {
	OrderNumber  *string `json:"order_number,omitempty"`
	CustomerID   *string `json:"customer_id,omitempty"`
	PackageID    *string `json:"package_id,omitempty"`
	BillingCycle *string `json:"billing_cycle,omitempty"`
	Amount       *int64  `json:"amount,omitempty"`
	Status       *string `json:"status,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
}

// Apply merges the patch over o, leaving o untouched on validation failure.
func (op OrderPatch) Apply(o *Order) error {
	next := *o
	set(&next.OrderNumber, op.OrderNumber)
	set(&next.CustomerID, op.CustomerID)
	set(&next.PackageID, op.PackageID)
	set(&next.BillingCycle, op.BillingCycle)
	set(&next.Amount, op.Amount)
	set(&next.Status, op.Status)
	set(&next.StartDate, op.StartDate)
	set(&next.EndDate, op.EndDate)
	if err := next.Validate(); err != nil {
		return err
	}
	*o = next
	return nil
}
