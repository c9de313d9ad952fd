package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// DeliveryAddress mirrors the delivery_address_t composite Postgres type.
type DeliveryAddress struct {
	Street   string  `json:"street" validate:"required,max=200"`
	Landmark *string `json:"landmark,omitempty" validate:"omitempty,max=120"`
	City     string  `json:"city" validate:"required,max=80"`
	State    string  `json:"state" validate:"required,max=80"`
	Pincode  string  `json:"pincode" validate:"required,pincode"`
	Phone    string  `json:"phone" validate:"required,phone"`
}

const deliveryAddressFields = 6

// Value marshals DeliveryAddress into a Postgres composite literal.
func (a DeliveryAddress) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Street) == "" {
		return nil, fmt.Errorf("address: missing street")
	}
	if strings.TrimSpace(a.City) == "" {
		return nil, fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return nil, fmt.Errorf("address: missing state")
	}
	if strings.TrimSpace(a.Pincode) == "" {
		return nil, fmt.Errorf("address: missing pincode")
	}

	return encodeComposite(&a.Street, a.Landmark, &a.City, &a.State, &a.Pincode, &a.Phone), nil
}

// Scan decodes the Postgres composite literal.
func (a *DeliveryAddress) Scan(value interface{}) error {
	if value == nil {
		*a = DeliveryAddress{}
		return nil
	}

	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}

	fields, err := decodeComposite(raw, deliveryAddressFields)
	if err != nil {
		return err
	}
	for i, f := range fields {
		if f.Null && i != 1 {
			return fmt.Errorf("address: field %d is null", i)
		}
	}

	*a = DeliveryAddress{
		Street:   fields[0].Text,
		Landmark: fields[1].ptr(),
		City:     fields[2].Text,
		State:    fields[3].Text,
		Pincode:  fields[4].Text,
		Phone:    fields[5].Text,
	}
	return nil
}

// OneLine renders the address for agent manifests and logs.
func (a DeliveryAddress) OneLine() string {
	parts := []string{a.Street}
	if a.Landmark != nil && strings.TrimSpace(*a.Landmark) != "" {
		parts = append(parts, *a.Landmark)
	}
	parts = append(parts, a.City, a.State+" "+a.Pincode)
	return strings.Join(parts, ", ")
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
