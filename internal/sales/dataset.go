// ABOUTME: Sales dataset model and CSV parsing
// ABOUTME: Reads e-commerce transactions and derives the total price of each line

package sales

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Required CSV columns.
var requiredColumns = []string{
	"date",
	"product",
	"category",
	"region",
	"unit_price",
	"quantity",
	"customer_age",
	"customer_gender",
}

// ErrEmptyDataset is returned when a CSV has a header but no rows.
var ErrEmptyDataset = errors.New("dataset has no rows")

// Sale is one transaction line.
type Sale struct {
	Date           time.Time
	Product        string
	Category       string
	Region         string
	UnitPrice      float64
	Quantity       int
	CustomerAge    int
	CustomerGender string

	// TotalPrice is UnitPrice × Quantity, computed at load time.
	TotalPrice float64
}

// Dataset is a loaded, immutable set of sales.
type Dataset struct {
	Sales    []Sale
	Source   string
	LoadedAt time.Time
}

// Len returns the number of sales.
func (d *Dataset) Len() int {
	return len(d.Sales)
}

// Head returns up to n leading sales.
func (d *Dataset) Head(n int) []Sale {
	if n > len(d.Sales) {
		n = len(d.Sales)
	}
	return d.Sales[:n]
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Parse reads sales from CSV. The header must name every required column;
// extra columns are ignored and column order is free.
func Parse(r io.Reader) ([]Sale, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("reading header: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	reader.FieldsPerRecord = len(header)

	var sales []Sale
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		sale, err := parseRecord(record, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		sales = append(sales, sale)
	}

	if len(sales) == 0 {
		return nil, ErrEmptyDataset
	}
	return sales, nil
}

func parseRecord(record []string, idx map[string]int) (Sale, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[idx[name]])
	}

	var s Sale
	var err error

	if s.Date, err = parseDate(field("date")); err != nil {
		return Sale{}, err
	}
	s.Product = field("product")
	s.Category = field("category")
	s.Region = field("region")
	s.CustomerGender = field("customer_gender")

	if s.UnitPrice, err = strconv.ParseFloat(field("unit_price"), 64); err != nil {
		return Sale{}, fmt.Errorf("unit_price: %w", err)
	}
	if s.Quantity, err = parseWhole(field("quantity")); err != nil {
		return Sale{}, fmt.Errorf("quantity: %w", err)
	}
	if s.CustomerAge, err = parseWhole(field("customer_age")); err != nil {
		return Sale{}, fmt.Errorf("customer_age: %w", err)
	}

	s.TotalPrice = s.UnitPrice * float64(s.Quantity)
	return s, nil
}

// parseWhole accepts "3" as well as spreadsheet exports like "3.0".
func parseWhole(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not a whole number", v)
	}
	return int(f), nil
}
