package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"no fraction", "12", 1200, false},
		{"single fraction digit", "12.3", 1230, false},
		{"third digit rounds down", "12.344", 1234, false},
		{"third digit rounds up", "12.346", 1235, false},
		{"empty", "", 0, true},
		{"negative", "-5.00", 0, true},
		{"explicit plus", "+5.00", 0, true},
		{"zero", "0.00", 0, true},
		{"letters", "abc", 0, true},
		{"two separators", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNonNegativeDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"zero", "0", 0, false},
		{"zero with fraction", "0.00", 0, false},
		{"positive", "12.34", 1234, false},
		{"negative", "-5.00", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNonNegativeDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNonNegativeDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseNonNegativeDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	m := Money{Cents: 1050}

	if got := m.Mul(3); got.Cents != 3150 {
		t.Errorf("Mul(3) = %d, want 3150", got.Cents)
	}
	if got := m.Add(Money{Cents: 50}); got.Cents != 1100 {
		t.Errorf("Add(50) = %d, want 1100", got.Cents)
	}
	if got := m.Sub(Money{Cents: 1100}); got.Cents != -50 {
		t.Errorf("Sub(1100) = %d, want -50", got.Cents)
	}
	if got := m.String(); got != "10.50" {
		t.Errorf("String() = %q, want %q", got, "10.50")
	}
	if got := (Money{Cents: -5}).String(); got != "-0.05" {
		t.Errorf("String() = %q, want %q", got, "-0.05")
	}
	if got := m.Float64(); got != 10.50 {
		t.Errorf("Float64() = %v, want 10.50", got)
	}
}
