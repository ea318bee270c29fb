package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{15000, "Rp 15.000"},
		{336000, "Rp 336.000"},
		{1071000, "Rp 1.071.000"},
		{999, "Rp 999"},
		{-35000, "-Rp 35.000"},
	}
	for _, tt := range tests {
		if got := Currency(tt.amount); got != tt.want {
			t.Errorf("Currency(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-02-01", "1 Februari 2026"},
		{"2027-12-31", "31 Desember 2027"},
		{"2026-05-09T23:15:00.000Z", "9 Mei 2026"},
		{"2026-08-17T01:00:00+07:00", "16 Agustus 2026"},
		{"soon", "soon"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Date(tt.in); got != tt.want {
			t.Errorf("Date(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusBadge(t *testing.T) {
	tests := []struct {
		status string
		want   Badge
	}{
		{"active", Badge{"Active", "success"}},
		{"inactive", Badge{"Inactive", "danger"}},
		{"pending", Badge{"Pending", "warning"}},
		{"cancelled", Badge{"Cancelled", "danger"}},
		{"suspended", Badge{"Suspended", "warning"}},
		{"refunded", Badge{"refunded", "info"}},
	}
	for _, tt := range tests {
		if got := StatusBadge(tt.status); got != tt.want {
			t.Errorf("StatusBadge(%q) = %+v, want %+v", tt.status, got, tt.want)
		}
	}
}
