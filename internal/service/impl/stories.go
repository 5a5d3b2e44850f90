package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/storyfeed/internal/diff"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/service"
	"github.com/sidereusnuntius/storyfeed/internal/session"
	"github.com/sidereusnuntius/storyfeed/internal/validate"
)

func (s *AppService) Start(ctx context.Context) (err error) {
	defer func() { s.publish(err) }()

	s.Session.Restore(ctx)
	return s.Stories.Load(ctx)
}

func (s *AppService) RefreshFeed(ctx context.Context) (summary diff.Summary, err error) {
	defer func() { s.publish(err) }()

	before := s.Stories.Stories()
	if err = s.Stories.Load(ctx); err != nil {
		return
	}
	summary = diff.Feed(before, s.Stories.Stories())
	log.Debug().Stringer("changes", summary).Msg("feed refreshed")
	return
}

func (s *AppService) SubmitStory(ctx context.Context, fields domain.NewStory) (story domain.Story, err error) {
	defer func() { s.publish(err) }()

	user, err := s.user()
	if err != nil {
		return
	}

	fields = domain.NewStory{
		Title:  RemoveDuplicateSpaces(fields.Title),
		Author: RemoveDuplicateSpaces(fields.Author),
		URL:    strings.TrimSpace(fields.URL),
	}
	if err = validate.Story(fields); err != nil {
		err = fmt.Errorf("%w: %w", remote.ErrValidation, err)
		return
	}

	return s.Stories.Add(ctx, user.Token(), fields, user.RecordOwnStory)
}

// DeleteStory deletes a story from the feed. The server decides whether the user may delete it; the story only
// needs to be known locally.
func (s *AppService) DeleteStory(ctx context.Context, id string) (err error) {
	defer func() { s.publish(err) }()

	user, err := s.user()
	if err != nil {
		return
	}
	if _, ok := s.Stories.Find(id); !ok && !user.IsOwn(id) {
		return fmt.Errorf("%w: %s", service.ErrUnknownStory, id)
	}

	return s.Stories.Remove(ctx, user.Token(), id, user.ForgetOwnStory)
}

// ToggleFavorite accepts any story the user can see: on the feed, among their favorites or their own stories.
func (s *AppService) ToggleFavorite(ctx context.Context, id string) (favorited bool, err error) {
	defer func() { s.publish(err) }()

	user, err := s.user()
	if err != nil {
		return
	}

	story, ok := s.Stories.Find(id)
	if !ok {
		story, ok = find(user.Favorites(), id)
	}
	if !ok {
		story, ok = find(user.OwnStories(), id)
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", service.ErrUnknownStory, id)
	}

	return user.ToggleFavorite(ctx, story)
}

func (s *AppService) user() (*session.User, error) {
	if user := s.Session.Current(); user != nil {
		return user, nil
	}
	return nil, service.ErrLoginRequired
}

func find(stories []domain.Story, id string) (domain.Story, bool) {
	if i := domain.IndexOf(stories, id); i >= 0 {
		return stories[i], true
	}
	return domain.Story{}, false
}

func RemoveDuplicateSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
