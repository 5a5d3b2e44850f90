package domain

import "time"

// UserRecord is a user as the server describes it.
type UserRecord struct {
	Username   string
	Name       string
	CreatedAt  time.Time
	Favorites  []Story
	OwnStories []Story
}

// Credentials are what is persisted between runs so the session can be restored without a password.
type Credentials struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (c Credentials) Empty() bool {
	return c.Username == "" || c.Token == ""
}
