package entity

import "time"

type User struct {
	Id       string `bson:"_id" json:"id"`
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't expose password in JSON
	Name     string `bson:"name" json:"name"`
	// InboxEnabled is tri-state: nil means the user never touched the
	// setting, which counts as enabled. Use InboxOpen to resolve it.
	InboxEnabled *bool     `bson:"inboxEnabled,omitempty" json:"inboxEnabled,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// InboxOpen resolves the inboxEnabled field to its effective value.
// An absent field defaults to an open inbox.
func (u User) InboxOpen() bool {
	return u.InboxEnabled == nil || *u.InboxEnabled
}

// PublicProfile is the shape of a user exposed to other users.
type PublicProfile struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u User) Profile() PublicProfile {
	return PublicProfile{
		Id:       u.Id,
		Username: u.Username,
		Name:     u.Name,
	}
}
