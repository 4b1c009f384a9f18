package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/meridianhq/eventrecon/internal/normalize"
)

// Column aliases seen across expense system exports.
var csvColumnAliases = map[string]string{
	"transaction_id":   "external_id",
	"transactionid":    "external_id",
	"id":               "external_id",
	"transaction_date": "date",
	"date":             "date",
	"amount":           "amount",
	"currency":         "currency",
	"currency_code":    "currency",
	"vendor":           "vendor",
	"vendor_name":      "vendor",
	"merchant":         "vendor",
	"description":      "description",
	"expense_type":     "category",
	"category":         "category",
}

// CSVReader parses the expense system's CSV export into raw records.
type CSVReader struct{}

// NewCSVReader creates an expense system feed reader.
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

// Read parses the export. The header row is required; columns may appear
// in any order and under any known alias. Per-field problems are left for
// the normalizer so the caller can decide skip vs abort per record.
func (r *CSVReader) Read(_ context.Context, reader io.Reader) ([]normalize.RawRecord, error) {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := csvColumnAliases[key]; ok {
			if _, taken := columns[canonical]; !taken {
				columns[canonical] = i
			}
		}
	}

	for _, required := range []string{"amount", "date"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV export is missing a %s column", required)
		}
	}

	var records []normalize.RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		records = append(records, normalize.RawRecord{
			ExternalID:  field("external_id"),
			Amount:      field("amount"),
			Currency:    field("currency"),
			Date:        field("date"),
			Vendor:      field("vendor"),
			Description: field("description"),
			Category:    field("category"),
		})
	}

	return records, nil
}
