package entity

import "time"

const AlertTypeMessage = "message"

type Alert struct {
	Id          string    `bson:"_id" json:"id"`
	RecipientId string    `bson:"recipientId" json:"recipientId"`
	ActorId     string    `bson:"actorId" json:"actorId"`
	Type        string    `bson:"type" json:"type"`
	Seen        bool      `bson:"seen" json:"seen"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
