package entity

import "time"

// MaxContentLength is the maximum message length in characters,
// counted after trimming surrounding whitespace.
const MaxContentLength = 2000

type Message struct {
	Id              string    `bson:"_id" json:"id"`
	ConversationId  string    `bson:"conversationId" json:"conversationId"`
	SenderId        string    `bson:"senderId" json:"senderId"`
	Content         string    `bson:"content" json:"content"`
	ParentMessageId string    `bson:"parentMessageId,omitempty" json:"parentMessageId,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	// HiddenFor grows monotonically: a user who hid a message never
	// gets it back. Cardinality is bounded by the two participants.
	HiddenFor []string `bson:"hiddenFor,omitempty" json:"-"`
}

func (m Message) IsHiddenFor(userId string) bool {
	for _, id := range m.HiddenFor {
		if id == userId {
			return true
		}
	}
	return false
}
