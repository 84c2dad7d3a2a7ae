package chat

import (
	"time"

	"github.com/quickmoney/chat-service/internal/models"
)

// dedupeWindow is how close two records with identical body, sender and
// receiver must be to count as the same logical message. The value
// covers the REST-write plus realtime-echo race, where both paths
// persist independently within moments of each other.
const dedupeWindow = 2000 * time.Millisecond

// Dedupe collapses near-duplicate records out of an ascending-by-
// timestamp room history. Two passes are folded into one scan:
//
//  1. a record whose id was already emitted is dropped outright
//     (identical record re-read);
//  2. a record matching the body, sender and receiver of any
//     previously accepted record within dedupeWindow is dropped.
//
// The comparison runs against all accepted records, not just the
// previous one, so duplicates separated by unrelated messages are
// still caught. Quadratic in room size, which is fine at conversation
// scale. Output preserves the input (ascending) order.
func Dedupe(in []*models.Message) []*models.Message {
	seen := make(map[string]struct{}, len(in))
	out := make([]*models.Message, 0, len(in))

	for _, m := range in {
		if m.ID != "" {
			if _, ok := seen[m.ID]; ok {
				continue
			}
		}

		dup := false
		for _, kept := range out {
			if kept.Body != m.Body || kept.SenderID != m.SenderID || kept.ReceiverID != m.ReceiverID {
				continue
			}
			d := m.Timestamp.Sub(kept.Timestamp)
			if d < 0 {
				d = -d
			}
			if d < dedupeWindow {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		out = append(out, m)
		if m.ID != "" {
			seen[m.ID] = struct{}{}
		}
	}
	return out
}
