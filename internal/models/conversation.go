package models

import "time"

// LastMessage is the preview attached to a conversation entry.
type LastMessage struct {
	Body       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	IsSentByMe bool      `json:"isSentByMe"`
}

// Conversation is a derived view over messages: one entry per distinct
// counterpart of the requesting user. It is never persisted.
type Conversation struct {
	RoomID           string      `json:"roomId"`
	OtherParticipant UserProfile `json:"otherParticipant"`
	LastMessage      LastMessage `json:"lastMessage"`
}
