package entity

import "time"

type LimitType string

const (
	LimitHourlyPerRecipient LimitType = "hourly_per_recipient"
	LimitDailyGlobal        LimitType = "daily_global"
)

// RateLimitBucket is one fixed-window counter. Hourly buckets are
// scoped to a (sender, recipient) pair, daily buckets to the sender
// only. Old buckets are left behind for external cleanup.
type RateLimitBucket struct {
	Id           string    `bson:"_id" json:"id"`
	UserId       string    `bson:"userId" json:"userId"`
	RecipientId  string    `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	LimitType    LimitType `bson:"limitType" json:"limitType"`
	WindowStart  time.Time `bson:"windowStart" json:"windowStart"`
	MessageCount int       `bson:"messageCount" json:"messageCount"`
}
