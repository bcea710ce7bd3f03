// Package catalog holds the client-side cached collections for the two
// reference entities, customers and laundry services, and the shared CRUD
// store they both run on.
package catalog

import (
	"fmt"
	"strings"
)

// Customer is a laundry customer. Phone numbers are unique across the
// collection.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
}

func (c Customer) EntityID() string { return c.ID }

// UniqueKey returns the phone number.
func (c Customer) UniqueKey() string { return c.Phone }

// Service is a laundry service offering. Names are unique
// case-insensitively; prices are whole rupiah.
type Service struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Unit     string `json:"unit"`
	Category string `json:"category,omitempty"`
	Active   bool   `json:"active"`
}

func (s Service) EntityID() string { return s.ID }

// UniqueKey returns the lowercased name.
func (s Service) UniqueKey() string { return strings.ToLower(s.Name) }

// ValidationError is a pre-submission rule violation. No network call was
// made when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateCustomer(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}

	if strings.TrimSpace(c.Phone) == "" {
		return &ValidationError{Field: "phone", Message: "phone number is required"}
	}

	return nil
}

func validateService(s Service) error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}

	if strings.TrimSpace(s.Unit) == "" {
		return &ValidationError{Field: "unit", Message: "unit is required"}
	}

	if s.Price <= 0 {
		return &ValidationError{Field: "price", Message: "price must be greater than 0"}
	}

	return nil
}
