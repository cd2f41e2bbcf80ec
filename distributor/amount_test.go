package distributor

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"100000", 100000, true},
		{"0.5", 0.5, true},
		{" 42 ", 42, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.raw)
		if c.valid && err != nil {
			t.Errorf("ParseAmount(%q): %v", c.raw, err)
		}
		if !c.valid && err == nil {
			t.Errorf("ParseAmount(%q): expected an error", c.raw)
		}
		if c.valid && got != c.want {
			t.Errorf("ParseAmount(%q) = %g, want %g", c.raw, got, c.want)
		}
	}
}

func TestBaseUnitConversion(t *testing.T) {
	if got, err := ToBaseUnits(100000, 9); err != nil || got != 100_000_000_000_000 {
		t.Errorf("ToBaseUnits(100000, 9) = %d, %v", got, err)
	}
	if got, err := ToBaseUnits(0.5, 9); err != nil || got != 500_000_000 {
		t.Errorf("ToBaseUnits(0.5, 9) = %d, %v", got, err)
	}
	// Below one base unit rounds to zero; callers reject that.
	if got, err := ToBaseUnits(0.0000000001, 9); err != nil || got != 0 {
		t.Errorf("ToBaseUnits(1e-10, 9) = %d, %v, want 0", got, err)
	}
	if got := FromBaseUnits(1_500_000_000, 9); got != 1.5 {
		t.Errorf("FromBaseUnits(1500000000, 9) = %g", got)
	}
}

func TestBaseUnitOverflow(t *testing.T) {
	// 2e10 tokens at 9 decimals is 2e19 base units, above MaxUint64.
	// The conversion must reject it instead of wrapping to a smaller
	// amount.
	for _, human := range []float64{2e10, 1e30, 18_446_744_073.709553} {
		if got, err := ToBaseUnits(human, 9); err == nil {
			t.Errorf("ToBaseUnits(%g, 9) = %d, want an out-of-range error", human, got)
		}
	}
	// The largest in-range amounts still convert and round-trip.
	units, err := ToBaseUnits(1e10, 9)
	if err != nil {
		t.Fatalf("ToBaseUnits(1e10, 9): %v", err)
	}
	if back := FromBaseUnits(units, 9); back != 1e10 {
		t.Errorf("round trip 1e10 -> %d -> %g", units, back)
	}
}
