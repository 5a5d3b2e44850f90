package domain

import (
	"net/url"
	"strings"
	"time"
)

// Story is a single submission on the feed. Stories are values: they are copied between the feed and the
// user's lists, never shared.
type Story struct {
	ID        string
	Title     string
	Author    string
	URL       string
	// Username is the name of the user who submitted the story.
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HostName returns the host part of the story's URL, without a leading "www.". An empty string is returned
// if the URL cannot be parsed.
func (s Story) HostName() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// NewStory holds the fields a user fills in when submitting a story; the server assigns the rest.
type NewStory struct {
	Title  string
	Author string
	URL    string
}

// IndexOf returns the position of the story with the given id, or -1.
func IndexOf(stories []Story, id string) int {
	for i, s := range stories {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Without returns a new slice holding every story except the one with the given id.
func Without(stories []Story, id string) []Story {
	result := make([]Story, 0, len(stories))
	for _, s := range stories {
		if s.ID != id {
			result = append(result, s)
		}
	}
	return result
}
