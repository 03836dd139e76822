package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Address is the postal part of a user profile. The backend stores it as a
// JSON document and has historically returned it either as an object or as a
// JSON-encoded string of that object.
type Address struct {
	City            string `json:"city"`
	State           string `json:"state"`
	Country         string `json:"country"`
	Zip             string `json:"zip"`
	AddressVillage  string `json:"address_village"`
	Landmark        string `json:"landmark"`
	PersonalAddress string `json:"personal_address"`
	ShopingAddress  string `json:"shoping_address"`
	BillingAddress  string `json:"billing_address"`
}

// UnmarshalJSON never fails: anything that is not an address object (or a
// string holding one) decodes to the zero Address.
func (a *Address) UnmarshalJSON(data []byte) error {
	*a = ParseAddress(data)
	return nil
}

// ParseAddress normalizes a raw address value. It accepts an object, a JSON
// string containing an object, null, or invalid input, and always returns a
// usable Address.
func ParseAddress(data []byte) Address {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Address{}
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Address{}
		}
		data = bytes.TrimSpace([]byte(s))
	}
	if len(data) == 0 || data[0] != '{' {
		return Address{}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Address{}
	}

	return Address{
		City:            scalar(fields["city"]),
		State:           scalar(fields["state"]),
		Country:         scalar(fields["country"]),
		Zip:             scalar(fields["zip"]),
		AddressVillage:  scalar(fields["address_village"]),
		Landmark:        scalar(fields["landmark"]),
		PersonalAddress: scalar(fields["personal_address"]),
		ShopingAddress:  scalar(fields["shoping_address"]),
		BillingAddress:  scalar(fields["billing_address"]),
	}
}

// scalar flattens a decoded JSON value to text. Zip codes in particular show
// up as numbers.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Merge overlays the non-empty fields of patch onto a.
func (a Address) Merge(patch Address) Address {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&a.City, patch.City)
	set(&a.State, patch.State)
	set(&a.Country, patch.Country)
	set(&a.Zip, patch.Zip)
	set(&a.AddressVillage, patch.AddressVillage)
	set(&a.Landmark, patch.Landmark)
	set(&a.PersonalAddress, patch.PersonalAddress)
	set(&a.ShopingAddress, patch.ShopingAddress)
	set(&a.BillingAddress, patch.BillingAddress)
	return a
}
