package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	t.Parallel()

	input := "Name, Phone Number \nAhmed,0512345678\nSara,0598765432\n"
	table, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(table.Headers) != 2 || table.Headers[0] != "name" || table.Headers[1] != "phone number" {
		t.Fatalf("headers = %v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[0][1] != "0512345678" {
		t.Fatalf("row value = %q", table.Rows[0][1])
	}
}

func TestParseCSVRaggedRows(t *testing.T) {
	t.Parallel()

	input := "phone\n0512345678\n0598765432,extra\n"
	table, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader("phone\n"))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("err = %v, want ErrEmptyFile", err)
	}
}

func TestParseDispatch(t *testing.T) {
	t.Parallel()

	if _, err := Parse("contacts.txt", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("err = %v, want ErrUnsupportedFile", err)
	}
	// Legacy OLE workbooks are not readable; the extension is refused
	// instead of failing deep inside the workbook reader.
	if _, err := Parse("contacts.xls", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("xls: err = %v, want ErrUnsupportedFile", err)
	}
	if _, err := Parse("Contacts.CSV", strings.NewReader("phone\n0512345678\n")); err != nil {
		t.Fatalf("csv dispatch: %v", err)
	}
}

func TestCell(t *testing.T) {
	t.Parallel()

	row := []string{"a", " b "}
	if got := cell(row, 1); got != "b" {
		t.Fatalf("cell = %q, want %q", got, "b")
	}
	if got := cell(row, 5); got != "" {
		t.Fatalf("out-of-range cell = %q, want empty", got)
	}
}
