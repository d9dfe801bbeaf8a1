package ingest

import (
	"errors"
	"testing"
)

func TestDetectPhoneColumnByHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers []string
		want    int
	}{
		{name: "exact", headers: []string{"name", "phone"}, want: 1},
		{name: "synonym fragment", headers: []string{"mobile number", "name"}, want: 0},
		{name: "arabic label with tel", headers: []string{"name", "telephone"}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectPhoneColumn(Table{Headers: tt.headers})
			if err != nil {
				t.Fatalf("DetectPhoneColumn: %v", err)
			}
			if got != tt.want {
				t.Fatalf("col = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDetectPhoneColumnByContent(t *testing.T) {
	t.Parallel()

	table := Table{
		Headers: []string{"a", "b"},
		Rows: [][]string{
			{"Ahmed", "0512345678"},
			{"Sara", "0598765432"},
			{"Omar", "not-a-number"},
		},
	}
	got, err := DetectPhoneColumn(table)
	if err != nil {
		t.Fatalf("DetectPhoneColumn: %v", err)
	}
	if got != 1 {
		t.Fatalf("col = %d, want 1", got)
	}
}

func TestDetectPhoneColumnSingleSample(t *testing.T) {
	t.Parallel()

	// one sampled value is enough when it looks like a number
	table := Table{
		Headers: []string{"a"},
		Rows:    [][]string{{"966512345678"}},
	}
	if _, err := DetectPhoneColumn(table); err != nil {
		t.Fatalf("DetectPhoneColumn: %v", err)
	}
}

func TestDetectPhoneColumnNone(t *testing.T) {
	t.Parallel()

	table := Table{
		Headers: []string{"name", "city"},
		Rows: [][]string{
			{"Ahmed", "Riyadh"},
			{"Sara", "Jeddah"},
		},
	}
	_, err := DetectPhoneColumn(table)
	if !errors.Is(err, ErrNoPhoneColumn) {
		t.Fatalf("err = %v, want ErrNoPhoneColumn", err)
	}
}
