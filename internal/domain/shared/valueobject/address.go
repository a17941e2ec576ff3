package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a value object representing a buyer's shipping address
// It is immutable - all operations return new Address instances
type Address struct {
	street  string
	city    string
	state   string
	zip     string
	country string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithCountry sets the country for the address (defaults to US)
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address with the required fields.
// Street, city, state and zip are required; country defaults to US.
func NewAddress(street, city, state, zip string, opts ...AddressOption) (Address, error) {
	street = strings.TrimSpace(street)
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	zip = strings.TrimSpace(zip)

	if street == "" {
		return Address{}, fmt.Errorf("street cannot be empty")
	}
	if len(street) > 200 {
		return Address{}, fmt.Errorf("street cannot exceed 200 characters")
	}
	if city == "" {
		return Address{}, fmt.Errorf("city cannot be empty")
	}
	if state == "" {
		return Address{}, fmt.Errorf("state cannot be empty")
	}
	if zip == "" {
		return Address{}, fmt.Errorf("zip cannot be empty")
	}
	if len(zip) > 20 {
		return Address{}, fmt.Errorf("zip cannot exceed 20 characters")
	}

	addr := Address{
		street:  street,
		city:    city,
		state:   state,
		zip:     zip,
		country: "US",
	}

	for _, opt := range opts {
		opt(&addr)
	}

	if addr.country == "" {
		addr.country = "US"
	}
	if len(addr.country) > 100 {
		return Address{}, fmt.Errorf("country cannot exceed 100 characters")
	}

	return addr, nil
}

// Street returns the street line
func (a Address) Street() string { return a.street }

// City returns the city
func (a Address) City() string { return a.city }

// State returns the state or province
func (a Address) State() string { return a.state }

// Zip returns the postal code
func (a Address) Zip() string { return a.zip }

// Country returns the country code
func (a Address) Country() string { return a.country }

// IsZero returns true if the address carries no data
func (a Address) IsZero() bool {
	return a.street == "" && a.city == "" && a.state == "" && a.zip == ""
}

// Equals returns true if both addresses are identical
func (a Address) Equals(other Address) bool {
	return a == other
}

// String returns a single-line representation suitable for logs and instructions
func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", a.street, a.city, a.state, a.zip, a.country)
}

type addressJSON struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Street:  a.street,
		City:    a.city,
		State:   a.state,
		Zip:     a.zip,
		Country: a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	a.street = v.Street
	a.city = v.City
	a.state = v.State
	a.zip = v.Zip
	a.country = v.Country
	if a.country == "" {
		a.country = "US"
	}
	return nil
}

// Value implements driver.Valuer for database storage (JSON column)
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	return a.UnmarshalJSON(b)
}
