package localstore

// Fixed collection keys. These names are part of the persisted format and
// must not change without a data migration.
const (
	KeyProfile         = "profile"
	KeyAllProfiles     = "allProfiles"
	KeyRequests        = "mentorshipRequests"
	KeyMessages        = "messages"
	KeyConversations   = "conversations"
	KeyMeetings        = "meetings"
	KeyInvitationCodes = "invitationCodes"
	KeyInbox           = "inbox"
	KeyUsers           = "users"
)

// TestProfileKey returns the per-email slot used for seeded test profiles.
func TestProfileKey(email string) string {
	return "testProfile_" + email
}
