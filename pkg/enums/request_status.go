package enums

import "fmt"

// RequestStatus describes the lifecycle of a mentorship request. The only
// legal transition is pending -> accepted|declined.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusAccepted,
	RequestStatusDeclined,
}

// IsValid reports whether the value matches the canonical request status enum.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsResolved reports whether the request left the pending state.
func (s RequestStatus) IsResolved() bool {
	return s == RequestStatusAccepted || s == RequestStatusDeclined
}

// ParseRequestStatus converts the raw string to RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
