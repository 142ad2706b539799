package entity

import "time"

const ReportStatusPending = "pending"

type Report struct {
	Id             string    `bson:"_id" json:"id"`
	ReporterId     string    `bson:"reporterId" json:"reporterId"`
	ReportedUserId string    `bson:"reportedUserId" json:"reportedUserId"`
	ConversationId string    `bson:"conversationId" json:"conversationId"`
	MessageId      string    `bson:"messageId,omitempty" json:"messageId,omitempty"`
	Reason         string    `bson:"reason" json:"reason"`
	Status         string    `bson:"status" json:"status"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}
