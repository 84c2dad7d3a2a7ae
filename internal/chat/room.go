// Package chat holds the conversation core: room key derivation,
// duplicate collapsing and conversation aggregation. Everything here is
// pure logic over models, free of transport and storage concerns.
package chat

import (
	"fmt"
	"regexp"

	"github.com/quickmoney/chat-service/internal/apperr"
	"github.com/quickmoney/chat-service/internal/models"
)

// roomSeparator joins the sorted participant ids. Ids must never
// contain it, see ValidateUserID.
const roomSeparator = "-"

// RoomKey derives the canonical room id for an unordered participant
// pair: the two ids sorted lexicographically and joined with "-".
// Every write path must use this derivation so that messages from any
// path land in the same room.
func RoomKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + roomSeparator + b
}

// Counterpart returns the participant of m that is not userID.
func Counterpart(m *models.Message, userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// ValidateUserID checks that id is a syntactically valid participant
// identifier. Ids are opaque, but they must be non-empty and must not
// contain the room separator. The system sender sentinel passes.
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: invalid user id %q", apperr.ErrValidation, id)
	}
	return nil
}
