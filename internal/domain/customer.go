package domain

import (
	"errors"
	"net/mail"
)

// Customer is an account holder who places orders.
type Customer struct {
	Record
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// Validate checks name, email and status.
func (c *Customer) Validate() error {
	var errs []error
	errs = append(errs, required("name", c.Name))
	if err := required("email", c.Email); err != nil {
		errs = append(errs, err)
	} else if _, err := mail.ParseAddress(c.Email); err != nil {
		errs = append(errs, invalid("email", "%q is not an email address", c.Email))
	}
	errs = append(errs, oneOf("status", c.Status, StatusActive, StatusInactive))
	return errors.Join(errs...)
}

// CustomerPatch lists the customer fields an update may change.
type CustomerPatch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
	Address *string `json:"address,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// Apply merges the patch over c, leaving c untouched on validation failure.
func (cp CustomerPatch) Apply(c *Customer) error {
	next := *c
	set(&next.Name, cp.Name)
	set(&next.Email, cp.Email)
	set(&next.Phone, cp.Phone)
	set(&next.Company, cp.Company)
	set(&next.Address, cp.Address)
	set(&next.Status, cp.Status)
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
