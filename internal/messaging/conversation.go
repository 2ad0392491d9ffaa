package messaging

import (
	"sort"
	"strings"
)

// ConversationID derives the deterministic conversation id for two
// participants: sorted emails joined with an underscore. The same pair always
// resolves to the same conversation regardless of argument order.
func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}
