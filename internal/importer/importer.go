// Package importer parses customer CSV exports from other systems so the
// counter staff can migrate their existing customer list in one step.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cucikilat/pos/internal/catalog"
	"github.com/cucikilat/pos/internal/encoding"
)

// RowError is a rejected CSV row with the reason it was skipped.
type RowError struct {
	Line   int
	Reason string
}

// Result separates importable customers from rejected rows. Duplicates
// lists rows whose phone number already exists in the current catalog.
type Result struct {
	Customers  []catalog.Customer
	Duplicates []catalog.Customer
	Errors     []RowError
}

// Service parses CSV files with columns: name, phone, address, email.
// A header row is detected and skipped. hasPhone consults the customer
// catalog so duplicates are flagged before any network call.
type Service struct {
	hasPhone func(phone string) bool
}

func NewService(hasPhone func(phone string) bool) *Service {
	return &Service{hasPhone: hasPhone}
}

// Parse reads the whole file. Charset is detected, so exports from legacy
// Windows tools work unmodified.
func (s *Service) Parse(r io.Reader) (*Result, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	cr := csv.NewReader(utf8r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	result := &Result{}
	seen := make(map[string]bool)
	line := 0

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		line++

		if line == 1 && isHeader(record) {
			continue
		}

		c, rowErr := toCustomer(record)
		if rowErr != "" {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: rowErr})
			continue
		}

		if seen[c.Phone] {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "duplicate phone number within file"})
			continue
		}

		seen[c.Phone] = true

		if s.hasPhone != nil && s.hasPhone(c.Phone) {
			result.Duplicates = append(result.Duplicates, c)
			continue
		}

		result.Customers = append(result.Customers, c)
	}

	return result, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}

	first := strings.ToLower(strings.TrimSpace(record[0]))

	return first == "name" || first == "nama"
}

func toCustomer(record []string) (catalog.Customer, string) {
	var c catalog.Customer

	if len(record) < 2 {
		return c, "expected at least name and phone columns"
	}

	c.Name = strings.TrimSpace(record[0])
	c.Phone = strings.TrimSpace(record[1])

	if len(record) > 2 {
		c.Address = strings.TrimSpace(record[2])
	}

	if len(record) > 3 {
		c.Email = strings.TrimSpace(record[3])
	}

	if c.Name == "" {
		return c, "name is required"
	}

	if c.Phone == "" {
		return c, "phone number is required"
	}

	return c, ""
}
