package enums

import "fmt"

// InboxItemType classifies items delivered to a member inbox.
type InboxItemType string

const (
	InboxItemTypeNotification   InboxItemType = "notification"
	InboxItemTypeInvitationCode InboxItemType = "invitation_code"
)

var validInboxItemTypes = []InboxItemType{
	InboxItemTypeNotification,
	InboxItemTypeInvitationCode,
}

// IsValid reports whether the value matches the canonical inbox item type enum.
func (i InboxItemType) IsValid() bool {
	for _, candidate := range validInboxItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInboxItemType converts the raw string to InboxItemType.
func ParseInboxItemType(value string) (InboxItemType, error) {
	for _, candidate := range validInboxItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inbox item type %q", value)
}
