package domain

import "errors"

// Package is a hosting plan offered on the landing page.
type Package struct {
	Record
	Name         string   `json:"name"`
	PriceMonthly int64    `json:"price_monthly"`
	PriceYearly  int64    `json:"price_yearly"`
	Storage      string   `json:"storage"`
	Bandwidth    string   `json:"bandwidth"`
	Websites     int      `json:"websites"`
	Email        string   `json:"email"`
	SSL          bool     `json:"ssl"`
	Domain       bool     `json:"domain"`
	Support      string   `json:"support"`
	Features     []string `json:"features"`
	Status       string   `json:"status"`
}

// Validate checks the fields a package must carry.
func (p *Package) Validate() error {
	var errs []error
	errs = append(errs, required("name", p.Name))
	if p.PriceMonthly < 0 {
		errs = append(errs, invalid("price_monthly", "must not be negative"))
	}
	if p.PriceYearly < 0 {
		errs = append(errs, invalid("price_yearly", "must not be negative"))
	}
	if p.Websites < 0 {
		errs = append(errs, invalid("websites", "must not be negative"))
	}
	errs = append(errs, required("status", p.Status))
	return errors.Join(errs...)
}

// PriceFor returns the package price for a billing cycle. Unknown cycles
// report ok=false.
func (p *Package) PriceFor(cycle string) (int64, bool) {
	switch cycle {
	case CycleMonthly:
		return p.PriceMonthly, true
	case CycleYearly:
		return p.PriceYearly, true
	}
	return 0, false
}

// PackagePatch lists the package fields an update may change. Nil fields are
// left alone.
type PackagePatch struct {
	Name         *string   `json:"name,omitempty"`
	PriceMonthly *int64    `json:"price_monthly,omitempty"`
	PriceYearly  *int64    `json:"price_yearly,omitempty"`
	Storage      *string   `json:"storage,omitempty"`
	Bandwidth    *string   `json:"bandwidth,omitempty"`
	Websites     *int      `json:"websites,omitempty"`
	Email        *string   `json:"email,omitempty"`
	SSL          *bool     `json:"ssl,omitempty"`
	Domain       *bool     `json:"domain,omitempty"`
	Support      *string   `json:"support,omitempty"`
	Features     *[]string `json:"features,omitempty"`
	Status       *string   `json:"status,omitempty"`
}

// Apply merges the patch over p. The merged package is validated first and
// p is left untouched when validation fails.
func (pp PackagePatch) Apply(p *Package) error {
	next := *p
	set(&next.Name, pp.Name)
	set(&next.PriceMonthly, pp.PriceMonthly)
	set(&next.PriceYearly, pp.PriceYearly)
	set(&next.Storage, pp.Storage)
	set(&next.Bandwidth, pp.Bandwidth)
	set(&next.Websites, pp.Websites)
	set(&next.Email, pp.Email)
	set(&next.SSL, pp.SSL)
	set(&next.Domain, pp.Domain)
	set(&next.Support, pp.Support)
	if pp.Features != nil {
		next.Features = append([]string(nil), (*pp.Features)...)
	}
	set(&next.Status, pp.Status)
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

func set[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}
