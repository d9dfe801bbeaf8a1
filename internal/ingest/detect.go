package ingest

import (
	"errors"
	"strings"

	"github.com/mursal-app/mursal/internal/phone"
)

// ErrNoPhoneColumn is returned when no column can be identified as
// holding phone numbers.
var ErrNoPhoneColumn = errors.New("no phone column found")

// Header fragments that mark a column as the phone column.
var phoneSynonyms = []string{"phone", "mobile", "cell", "contact", "number", "tel", "telephone"}

// detectSampleLimit caps how many non-empty values per column the content
// probe inspects.
const detectSampleLimit = 5

// DetectPhoneColumn locates the phone-number column. A header containing
// one of the known synonyms wins; otherwise each column's values are
// sampled and the first column where enough of them resemble Saudi
// mobile numbers is chosen.
func DetectPhoneColumn(table Table) (int, error) {
	for col, header := range table.Headers {
		for _, synonym := range phoneSynonyms {
			if strings.Contains(header, synonym) {
				return col, nil
			}
		}
	}

	width := len(table.Headers)
	for _, row := range table.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for col := 0; col < width; col++ {
		if columnLooksLikePhones(table.Rows, col) {
			return col, nil
		}
	}
	return 0, ErrNoPhoneColumn
}

func columnLooksLikePhones(rows [][]string, col int) bool {
	sampled, matched := 0, 0
	for _, row := range rows {
		value := cell(row, col)
		if value == "" {
			continue
		}
		sampled++
		if phone.LooksSaudi(value) {
			matched++
		}
		if sampled == detectSampleLimit {
			break
		}
	}
	if sampled == 0 {
		return false
	}
	threshold := (sampled + 1) / 2
	if threshold > 2 {
		threshold = 2
	}
	return matched >= threshold
}
