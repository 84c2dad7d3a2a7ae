package models

import "time"

// SystemSender is the reserved sender id for automated messages
// (loan approvals and similar), as opposed to user-authored content.
const SystemSender = "system"

// Message is the persisted chat record. Field names on the wire and in
// Mongo match what the rest of the platform reads and writes.
type Message struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	SenderID   string    `bson:"senderId" json:"senderId"`
	ReceiverID string    `bson:"receiverId" json:"receiverId"`
	Body       string    `bson:"message" json:"message"`
	RoomID     string    `bson:"roomId" json:"roomId"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}
