// Package format renders amounts, dates and statuses the way the admin
// panel displays them: Indonesian rupiah, Indonesian long dates, and
// colored status badges.
package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// rupiahGrouping groups thousands with "." and prints no fraction.
const rupiahGrouping = "#.###,"

// Currency formats an amount of rupiah, e.g. 1071000 as "Rp 1.071.000".
// A no-break space separates the symbol from the digits.
func Currency(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "Rp " + humanize.FormatInteger(rupiahGrouping, int(amount))
}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var dateLayouts = []string{time.DateOnly, time.RFC3339Nano}

// Date formats a YYYY-MM-DD date or an RFC 3339 timestamp as an Indonesian
// long date, e.g. "1 Februari 2026". Timestamps are shown in UTC. Input that
// parses as neither is returned unchanged.
func Date(s string) string {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
	}
	return s
}

// Badge is a status label with the style variant used to color it.
type Badge struct {
	Label   string `json:"label"`
	Variant string `json:"variant"`
}

var badgeVariants = map[string]string{
	"active":    "success",
	"inactive":  "danger",
	"pending":   "warning",
	"cancelled": "danger",
	"suspended": "warning",
}

// StatusBadge returns the badge for a record status. Unrecognized statuses
// keep their raw text and get the "info" variant.
func StatusBadge(status string) Badge {
	variant, ok := badgeVariants[status]
	if !ok {
		return Badge{Label: status, Variant: "info"}
	}
	return Badge{Label: cases.Title(language.Und).String(status), Variant: variant}
}
