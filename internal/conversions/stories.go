package conversions

import (
	"fmt"

	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/tidwall/gjson"
)

// ConvertStory maps a story record, as in {"storyId","title","author","url","username","createdAt"}, into a
// domain.Story.
func ConvertStory(r gjson.Result) (s domain.Story, err error) {
	if !r.IsObject() {
		err = fmt.Errorf("%w: story is not an object", ErrUnprocessablePropValue)
		return
	}

	if s.ID, err = requiredString(r, "storyId"); err != nil {
		return domain.Story{}, err
	}
	if s.Title, err = requiredString(r, "title"); err != nil {
		return domain.Story{}, err
	}
	if s.Username, err = requiredString(r, "username"); err != nil {
		return domain.Story{}, err
	}
	if s.Author, err = optionalString(r, "author"); err != nil {
		return domain.Story{}, err
	}
	if s.URL, err = optionalString(r, "url"); err != nil {
		return domain.Story{}, err
	}
	if s.CreatedAt, err = timestamp(r, "createdAt", true); err != nil {
		return domain.Story{}, err
	}
	if s.UpdatedAt, err = timestamp(r, "updatedAt", false); err != nil {
		return domain.Story{}, err
	}
	return s, nil
}

// ConvertStories maps an array of story records, keeping their order. A missing or null list yields an empty
// slice.
func ConvertStories(r gjson.Result) ([]domain.Story, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return []domain.Story{}, nil
	}
	if !r.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of stories", ErrUnprocessablePropValue)
	}

	items := r.Array()
	stories := make([]domain.Story, 0, len(items))
	for i, item := range items {
		s, err := ConvertStory(item)
		if err != nil {
			return nil, fmt.Errorf("story %d: %w", i, err)
		}
		stories = append(stories, s)
	}
	return stories, nil
}

// FeedFromBody decodes the response of GET /stories.
func FeedFromBody(body []byte) ([]domain.Story, error) {
	r, err := Parse(body, "stories")
	if err != nil {
		return nil, err
	}
	return ConvertStories(r)
}

// StoryFromBody decodes responses shaped as {"story":{...}}.
func StoryFromBody(body []byte) (domain.Story, error) {
	r, err := Parse(body, "story")
	if err != nil {
		return domain.Story{}, err
	}
	return ConvertStory(r)
}
