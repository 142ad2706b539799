package entity

import "time"

// Conversation is the single record for an unordered pair of users.
// The two participant ids are stored sorted, so the pair has exactly
// one representation and at most one record can exist per pair.
type Conversation struct {
	Id             string    `bson:"_id" json:"id"`
	UserLowId      string    `bson:"userLowId" json:"userLowId"`
	UserHighId     string    `bson:"userHighId" json:"userHighId"`
	LastMessageId  string    `bson:"lastMessageId,omitempty" json:"lastMessageId,omitempty"`
	LastActivityAt time.Time `bson:"lastActivityAt" json:"lastActivityAt"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// CanonicalPair sorts two user ids into the fixed (low, high) order.
func CanonicalPair(userA, userB string) (low, high string) {
	if userA <= userB {
		return userA, userB
	}
	return userB, userA
}

func (c Conversation) HasParticipant(userId string) bool {
	return c.UserLowId == userId || c.UserHighId == userId
}

// OtherParticipant resolves the participant that is not userId.
// Callers must check HasParticipant first.
func (c Conversation) OtherParticipant(userId string) string {
	if c.UserLowId == userId {
		return c.UserHighId
	}
	return c.UserLowId
}

// DeletionMarker records that a user has hidden a conversation from
// their inbox. Presence-only; at most one per (conversation, user).
type DeletionMarker struct {
	Id             string    `bson:"_id" json:"id"`
	ConversationId string    `bson:"conversationId" json:"conversationId"`
	UserId         string    `bson:"userId" json:"userId"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// ReadReceipt tracks the last time a user marked a conversation read.
// One row per (conversation, user), updated in place.
type ReadReceipt struct {
	Id             string    `bson:"_id" json:"id"`
	ConversationId string    `bson:"conversationId" json:"conversationId"`
	UserId         string    `bson:"userId" json:"userId"`
	LastReadAt     time.Time `bson:"lastReadAt" json:"lastReadAt"`
}

// ConversationSummary is one row of a user's inbox listing.
type ConversationSummary struct {
	Conversation Conversation  `json:"conversation"`
	OtherUser    PublicProfile `json:"otherUser"`
	LastMessage  *Message      `json:"lastMessage,omitempty"`
	UnreadCount  int           `json:"unreadCount"`
}
