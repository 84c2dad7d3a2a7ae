package chat

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/models"
)

// ProfileFinder resolves a participant id to its public profile.
type ProfileFinder interface {
	FindProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// AggregateConversations derives the conversation list for userID from
// its raw message log (both directions, descending by timestamp).
//
// Messages are grouped by a room key re-derived from the participant
// pair rather than the stored roomId, so historically inconsistent
// keys still collapse into one conversation. Within a group the
// latest message wins; on an exact timestamp tie the one seen first in
// the descending scan is kept. A counterpart whose profile no longer
// resolves (deleted account, lookup failure) drops that entry only —
// the rest of the list still comes back.
func AggregateConversations(ctx context.Context, userID string, msgs []*models.Message, profiles ProfileFinder, log *zap.SugaredLogger) []models.Conversation {
	latest := make(map[string]*models.Message)
	var order []string

	for _, m := range msgs {
		if m.SenderID == "" || m.ReceiverID == "" {
			continue
		}
		key := RoomKey(m.SenderID, m.ReceiverID)
		cur, ok := latest[key]
		if !ok {
			latest[key] = m
			order = append(order, key)
			continue
		}
		if m.Timestamp.After(cur.Timestamp) {
			latest[key] = m
		}
	}

	out := make([]models.Conversation, 0, len(order))
	for _, key := range order {
		m := latest[key]
		other := Counterpart(m, userID)

		profile, err := profiles.FindProfile(ctx, other)
		if err != nil {
			if log != nil {
				log.Warnw("skipping conversation, counterpart did not resolve",
					"roomId", key, "counterpart", other, "error", err)
			}
			continue
		}

		out = append(out, models.Conversation{
			RoomID:           key,
			OtherParticipant: *profile,
			LastMessage: models.LastMessage{
				Body:       m.Body,
				Timestamp:  m.Timestamp,
				SenderID:   m.SenderID,
				ReceiverID: m.ReceiverID,
				IsSentByMe: m.SenderID == userID,
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.Timestamp.After(out[j].LastMessage.Timestamp)
	})
	return out
}
