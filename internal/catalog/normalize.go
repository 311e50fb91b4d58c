package catalog

import (
	"strconv"
	"strings"
)

// DefaultStatus is assigned to imported rows that carry no status value.
const DefaultStatus = "draft"

// NormalizeRow maps a raw CSV row onto a canonical product record.
//
// The name is trimmed and lowercased but may come out empty: empty-named
// rows pass through and are reconciled like any other. Non-numeric stock
// values silently coerce to zero rather than failing the row. A missing or
// blank status defaults to DefaultStatus. No row is ever rejected here.
func NormalizeRow(row RawRow) Product {
	stock, err := strconv.Atoi(strings.TrimSpace(row["stock"]))
	if err != nil {
		stock = 0
	}

	status := strings.ToLower(strings.TrimSpace(row["status"]))
	if status == "" {
		status = DefaultStatus
	}

	return Product{
		Name:     strings.ToLower(strings.TrimSpace(row["name"])),
		Unit:     row["unit"],
		Category: row["category"],
		Brand:    row["brand"],
		Stock:    stock,
		Status:   status,
		Image:    row["image"],
	}
}
