package catalog

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ExportColumns is the fixed column order for catalog exports. Import files
// are expected to carry the same header names (case-sensitive).
var ExportColumns = []string{"name", "unit", "category", "brand", "stock", "status", "image"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV parses uploaded tabular bytes into rows keyed by header cell.
//
// A leading UTF-8 BOM is stripped. Bytes that are not valid UTF-8 are
// re-decoded as Windows-1252 before tokenizing, which covers the common
// Excel-on-Windows export case. Input that cannot be tokenized as delimited
// text (unterminated quote, ragged rows) fails with an invalid-kind error.
// A header-only file yields an empty slice, not an error.
func DecodeCSV(data []byte) ([]RawRow, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, Invalid("file", "CSV file is not valid UTF-8 or Windows-1252 text")
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, Invalid("file", "malformed CSV: %v", err)
	}

	var rows []RawRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Invalid("file", "malformed CSV: %v", err)
		}

		row := make(RawRow, len(header))
		for i, cell := range record {
			row[header[i]] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// EncodeCSV renders products as CSV bytes: a header row in ExportColumns
// order followed by one row per record. Encoding zero records is a caller
// error, never a silent empty file.
func EncodeCSV(products []Product) ([]byte, error) {
	if len(products) == 0 {
		return nil, Invalid("", "no products to export")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(ExportColumns)
	for _, p := range products {
		w.Write([]string{p.Name, p.Unit, p.Category, p.Brand, strconv.Itoa(p.Stock), p.Status, p.Image})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, Persistence("encoding CSV: %v", err)
	}
	return buf.Bytes(), nil
}
