package address

import "strings"

// Address is a delivery address owned by the backend.
type Address struct {
	ID        string   `json:"id,omitempty"`
	Label     string   `json:"label,omitempty"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	Area      string   `json:"area,omitempty"`
	Building  string   `json:"building,omitempty"`
	Floor     string   `json:"floor,omitempty"`
	Apartment string   `json:"apartment,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	IsDefault bool     `json:"is_default"`
}

// HasCoordinates reports whether the address can be used to price delivery.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// GeocodeQuery renders the address as free text for the geocoder.
func (a Address) GeocodeQuery() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Building, a.Street, a.Area, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// SelectDefault picks the default address, else the first one, else nil.
func SelectDefault(addresses []Address) *Address {
	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	if len(addresses) > 0 {
		return &addresses[0]
	}
	return nil
}

func findByID(addresses []Address, id string) *Address {
	for i := range addresses {
		if addresses[i].ID == id {
			return &addresses[i]
		}
	}
	return nil
}
