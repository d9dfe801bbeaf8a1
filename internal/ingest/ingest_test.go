package ingest

import "testing"

func TestClassifyRows(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"Ahmed", "0512345678"},
		{"Sara", ""},
		{"Omar", "0598765432"},
		{"Lina", "12345"},
		{"Huda", "512345679"},
		{"Noor", "0512345678"},
		{"Rami", "966512345680"},
		{"Dana", ""},
		{"Fahd", "0555555555"},
	}

	phones, summary := classifyRows(rows, 1)

	if summary.Valid != 5 {
		t.Errorf("valid = %d, want 5", summary.Valid)
	}
	if summary.Empty != 2 {
		t.Errorf("empty = %d, want 2", summary.Empty)
	}
	if summary.Invalid != 1 {
		t.Errorf("invalid = %d, want 1", summary.Invalid)
	}
	if summary.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", summary.Duplicates)
	}
	if len(phones) != 5 {
		t.Fatalf("phones = %d, want 5", len(phones))
	}
	// canonical, first-seen order
	want := []string{"966512345678", "966598765432", "966512345679", "966512345680", "966555555555"}
	for i, number := range want {
		if phones[i] != number {
			t.Errorf("phones[%d] = %s, want %s", i, phones[i], number)
		}
	}
	if len(summary.Warnings) != 2 {
		t.Fatalf("warnings = %v, want one invalid and one duplicate", summary.Warnings)
	}
}

func TestClassifyRowsDifferentShapesCollapse(t *testing.T) {
	t.Parallel()

	// the same number in three accepted shapes is one valid + two duplicates
	rows := [][]string{
		{"0512345678"},
		{"512345678"},
		{"966512345678"},
	}
	phones, summary := classifyRows(rows, 0)
	if summary.Valid != 1 || summary.Duplicates != 2 {
		t.Fatalf("valid = %d duplicates = %d, want 1 and 2", summary.Valid, summary.Duplicates)
	}
	if len(phones) != 1 || phones[0] != "966512345678" {
		t.Fatalf("phones = %v", phones)
	}
}

func TestClassifyRowsAllEmpty(t *testing.T) {
	t.Parallel()

	phones, summary := classifyRows([][]string{{""}, {"   "}}, 0)
	if len(phones) != 0 {
		t.Fatalf("phones = %v, want none", phones)
	}
	if summary.Empty != 2 || summary.Invalid != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}
