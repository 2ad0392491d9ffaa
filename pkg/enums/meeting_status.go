package enums

import "fmt"

// MeetingStatus describes the lifecycle of a scheduled meeting.
type MeetingStatus string

const (
	MeetingStatusPending  MeetingStatus = "pending"
	MeetingStatusAccepted MeetingStatus = "accepted"
	MeetingStatusDeclined MeetingStatus = "declined"
)

var validMeetingStatuses = []MeetingStatus{
	MeetingStatusPending,
	MeetingStatusAccepted,
	MeetingStatusDeclined,
}

// IsValid reports whether the value matches the canonical meeting status enum.
func (s MeetingStatus) IsValid() bool {
	for _, candidate := range validMeetingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMeetingStatus converts the raw string to MeetingStatus.
func ParseMeetingStatus(value string) (MeetingStatus, error) {
	for _, candidate := range validMeetingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid meeting status %q", value)
}
