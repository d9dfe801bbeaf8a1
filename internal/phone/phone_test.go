package phone

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{name: "canonical passes through", raw: "966512345678", want: "966512345678", valid: true},
		{name: "local 05 form", raw: "0512345678", want: "966512345678", valid: true},
		{name: "bare 9-digit form", raw: "512345678", want: "966512345678", valid: true},
		{name: "formatting stripped", raw: "+966 51-234-5678", want: "966512345678", valid: true},
		{name: "local form with spaces", raw: "05 1234 5678", want: "966512345678", valid: true},
		{name: "966 wrong length", raw: "96651234567", valid: false},
		{name: "966 too long", raw: "9665123456789", valid: false},
		{name: "966 fourth digit not 5", raw: "966612345678", valid: false},
		{name: "05 wrong length", raw: "051234567", valid: false},
		{name: "bare form wrong length", raw: "51234567", valid: false},
		{name: "landline prefix", raw: "0112345678", valid: false},
		{name: "empty", raw: "", valid: false},
		{name: "letters only", raw: "abc", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			if ok != tt.valid {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.raw, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	normalized, ok := Normalize("0598765432")
	if !ok {
		t.Fatal("expected valid number")
	}
	again, ok := Normalize(normalized)
	if !ok {
		t.Fatal("expected normalized number to stay valid")
	}
	if again != normalized {
		t.Errorf("Normalize not idempotent: %q != %q", again, normalized)
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	if !Valid("512345678") {
		t.Error("expected 9-digit number starting with 5 to validate")
	}
	if Valid("412345678") {
		t.Error("did not expect 9-digit number starting with 4 to validate")
	}
	if Valid("966512345678x") != true {
		// non-digits are stripped before shape checks
		t.Error("expected formatted canonical number to validate")
	}
}

func TestIsCanonical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s    string
		want bool
	}{
		{"966512345678", true},
		{"966412345678", false},
		{"96651234567", false},
		{"9665123456789", false},
		{"96651234567a", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsCanonical(tt.s); got != tt.want {
			t.Errorf("IsCanonical(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestLooksSaudi(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want bool
	}{
		{"9665000000", true},   // 966 prefix, length not enforced here
		{"0512345678", true},
		{"512345678", true},
		{"51234567", false},    // 8 digits starting with 5
		{"0112345678", false},  // landline
		{"hello", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := LooksSaudi(tt.raw); got != tt.want {
			t.Errorf("LooksSaudi(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
