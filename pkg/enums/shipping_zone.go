package enums

import "fmt"

// ShippingZone buckets delivery destinations for the flat-fee rule.
type ShippingZone string

const (
	ShippingZoneInsideDhaka  ShippingZone = "inside_dhaka"
	ShippingZoneOutsideDhaka ShippingZone = "outside_dhaka"
)

var validShippingZones = []ShippingZone{
	ShippingZoneInsideDhaka,
	ShippingZoneOutsideDhaka,
}

// String implements fmt.Stringer.
func (z ShippingZone) String() string {
	return string(z)
}

// IsValid reports whether the value is a known ShippingZone.
func (z ShippingZone) IsValid() bool {
	for _, candidate := range validShippingZones {
		if candidate == z {
			return true
		}
	}
	return false
}

// ParseShippingZone converts raw input into a ShippingZone.
func ParseShippingZone(value string) (ShippingZone, error) {
	for _, candidate := range validShippingZones {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping zone %q", value)
}
