package enums

import "fmt"

// LocationType distinguishes in-person meetings from virtual ones.
type LocationType string

const (
	LocationTypeInPerson LocationType = "in-person"
	LocationTypeVirtual  LocationType = "virtual"
)

var validLocationTypes = []LocationType{
	LocationTypeInPerson,
	LocationTypeVirtual,
}

// IsValid reports whether the value matches the canonical location type enum.
func (l LocationType) IsValid() bool {
	for _, candidate := range validLocationTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLocationType converts the raw string to LocationType.
func ParseLocationType(value string) (LocationType, error) {
	for _, candidate := range validLocationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location type %q", value)
}
