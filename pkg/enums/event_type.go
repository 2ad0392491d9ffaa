package enums

// EventType is the canonical event_type attribute on published Pub/Sub
// messages.
type EventType string

const (
	EventInviteIssued EventType = "invite_issued"
)
