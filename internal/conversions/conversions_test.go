package conversions

import (
	_ "embed"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
)

//go:embed testdata/feed.json
var feed []byte

func TestFeedFromBody(t *testing.T) {
	stories, err := FeedFromBody(feed)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	expected := []domain.Story{
		{
			ID:        "1",
			Title:     "A",
			Author:    "Ada",
			URL:       "https://www.example.com/a",
			Username:  "ada",
			CreatedAt: toTime("2025-09-25T22:27:56.617Z"),
			UpdatedAt: toTime("2025-09-25T22:27:56.722Z"),
		},
		{
			ID:        "2",
			Title:     "B",
			Author:    "Brian",
			URL:       "http://news.example.org/b?x=1",
			Username:  "brian",
			CreatedAt: toTime("2025-09-24T10:00:00Z"),
		},
	}

	if diff := cmp.Diff(expected, stories); diff != "" {
		t.Error(diff)
	}
}

func TestStoryFromBody_Rejected(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
	}{
		{"not json", `{"story":`, ErrMalformed},
		{"no envelope", `{"stories":[]}`, ErrMissingProperty},
		{"missing id", `{"story":{"title":"t","username":"u","createdAt":"2025-01-01T00:00:00Z"}}`, ErrMissingProperty},
		{"numeric id", `{"story":{"storyId":7,"title":"t","username":"u","createdAt":"2025-01-01T00:00:00Z"}}`, ErrUnprocessablePropValue},
		{"empty title", `{"story":{"storyId":"7","title":"","username":"u","createdAt":"2025-01-01T00:00:00Z"}}`, ErrUnprocessablePropValue},
		{"bad timestamp", `{"story":{"storyId":"7","title":"t","username":"u","createdAt":"yesterday"}}`, ErrUnprocessablePropValue},
		{"missing timestamp", `{"story":{"storyId":"7","title":"t","username":"u"}}`, ErrMissingProperty},
		{"not an object", `{"story":[1,2]}`, ErrUnprocessablePropValue},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := StoryFromBody([]byte(c.body))
			if !errors.Is(err, c.err) {
				t.Errorf("expected %v, got %v", c.err, err)
			}
			if !errors.Is(err, remote.ErrValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestAuthFromBody(t *testing.T) {
	body := []byte(`{
		"token": "tok",
		"user": {
			"username": "ada",
			"name": "Ada L",
			"createdAt": "2025-01-01T00:00:00Z",
			"favorites": [{"storyId":"2","title":"B","username":"brian","createdAt":"2025-01-02T00:00:00Z"}],
			"stories": null
		}
	}`)

	u, token, err := AuthFromBody(body)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if token != "tok" {
		t.Errorf("expected token \"tok\", got %q", token)
	}

	expected := domain.UserRecord{
		Username:  "ada",
		Name:      "Ada L",
		CreatedAt: toTime("2025-01-01T00:00:00Z"),
		Favorites: []domain.Story{
			{ID: "2", Title: "B", Username: "brian", CreatedAt: toTime("2025-01-02T00:00:00Z")},
		},
		OwnStories: []domain.Story{},
	}
	if diff := cmp.Diff(expected, u); diff != "" {
		t.Error(diff)
	}

	if _, _, err = AuthFromBody([]byte(`{"user":{"username":"ada"}}`)); !errors.Is(err, ErrMissingProperty) {
		t.Errorf("expected missing token to be rejected, got %v", err)
	}
}

func TestFavoritesFromBody(t *testing.T) {
	body := []byte(`{"message":"Favorite Added!","user":{"username":"ada","favorites":[
		{"storyId":"1","title":"A","username":"ada","createdAt":"2025-01-01T00:00:00Z"},
		{"storyId":"x","title":"X","username":"ada"}
	]}}`)

	if _, err := FavoritesFromBody(body); !errors.Is(err, ErrMissingProperty) {
		t.Errorf("expected partial record to be rejected, got %v", err)
	}

	favs, err := FavoritesFromBody([]byte(`{"user":{"username":"ada"}}`))
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(favs) != 0 {
		t.Errorf("expected no favorites, got %d", len(favs))
	}
}

func TestErrorMessage(t *testing.T) {
	cases := map[string]string{
		`{"error":{"status":401,"title":"Unauthorized","message":"Invalid token."}}`: "Invalid token.",
		`{"error":{"status":500,"title":"Internal"}}`:                               "Internal",
		`{"error":"nope"}`:                                                          "nope",
		`<html>`:                                                                    "",
	}

	for body, expected := range cases {
		if got := ErrorMessage([]byte(body)); got != expected {
			t.Errorf("ErrorMessage(%s) = %q, expected %q", body, got, expected)
		}
	}
}

func toTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
