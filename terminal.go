package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sidereusnuntius/storyfeed/internal/diff"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/sidereusnuntius/storyfeed/internal/remote"
	"github.com/sidereusnuntius/storyfeed/internal/service"
)

const usage = `commands:
  list                          show the feed
  favorites                     show your favorite stories
  mine                          show the stories you submitted
  refresh                       reload the feed
  submit <url> <author> <title> submit a story
  delete <id>                   delete one of your stories
  fav <id>                      mark or unmark a story as a favorite
  login <username> <password>
  signup <username> <password> <name>
  logout
  quit`

// terminal is a line-oriented front end: it reads one intent per line and renders the snapshots the service
// publishes.
type terminal struct {
	svc service.Service
	in  *bufio.Scanner
	out io.Writer
}

func newTerminal(svc service.Service, in io.Reader, out io.Writer) *terminal {
	return &terminal{svc: svc, in: bufio.NewScanner(in), out: out}
}

func (t *terminal) Run(ctx context.Context) error {
	unsubscribe := t.svc.Subscribe(t.status)
	defer unsubscribe()

	if err := t.svc.Start(ctx); err == nil {
		t.list(t.svc.Snapshot().Stories)
	}
	fmt.Fprintln(t.out, `type "help" for a list of commands`)

	for {
		fmt.Fprint(t.out, "> ")
		if !t.in.Scan() {
			return t.in.Err()
		}
		if quit := t.exec(ctx, strings.Fields(t.in.Text())); quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (t *terminal) exec(ctx context.Context, args []string) (quit bool) {
	if len(args) == 0 {
		return
	}

	switch cmd, args := args[0], args[1:]; cmd {
	case "list":
		t.list(t.svc.Snapshot().Stories)
	case "favorites", "mine":
		snap := t.svc.Snapshot()
		if snap.User == nil {
			fmt.Fprintln(t.out, "you are not logged in")
			return
		}
		stories := snap.User.Favorites
		if cmd == "mine" {
			stories = snap.User.OwnStories
		}
		t.plain(stories)
	case "refresh":
		if summary, err := t.svc.RefreshFeed(ctx); err == nil {
			t.summary(summary)
		}
	case "submit":
		if len(args) < 3 {
			fmt.Fprintln(t.out, "usage: submit <url> <author> <title>")
			return
		}
		fields := domain.NewStory{URL: args[0], Author: args[1], Title: strings.Join(args[2:], " ")}
		if s, err := t.svc.SubmitStory(ctx, fields); err == nil {
			fmt.Fprintf(t.out, "submitted %s\n", s.ID)
		}
	case "delete", "fav":
		if len(args) != 1 {
			fmt.Fprintf(t.out, "usage: %s <id>\n", cmd)
			return
		}
		if cmd == "delete" {
			t.svc.DeleteStory(ctx, args[0])
			return
		}
		if favorited, err := t.svc.ToggleFavorite(ctx, args[0]); err == nil {
			fmt.Fprintf(t.out, "favorite: %v\n", favorited)
		}
	case "login":
		if len(args) != 2 {
			fmt.Fprintln(t.out, "usage: login <username> <password>")
			return
		}
		t.svc.Login(ctx, args[0], args[1])
	case "signup":
		if len(args) < 3 {
			fmt.Fprintln(t.out, "usage: signup <username> <password> <name>")
			return
		}
		t.svc.Signup(ctx, args[0], args[1], strings.Join(args[2:], " "))
	case "logout":
		t.svc.Logout(ctx)
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(t.out, usage)
	default:
		fmt.Fprintf(t.out, "unknown command %q\n", cmd)
	}
	return
}

// status is called with every snapshot and reports the outcome of the last intent.
func (t *terminal) status(snap service.Snapshot) {
	if snap.Err != nil {
		fmt.Fprintf(t.out, "error: %s\n", describe(snap.Err))
		return
	}

	who := "anonymous"
	if snap.User != nil {
		who = snap.User.Username
	}
	fmt.Fprintf(t.out, "[%s] %d stories\n", who, len(snap.Stories))
}

func (t *terminal) list(stories []service.StoryView) {
	for _, s := range stories {
		star, mine := " ", ""
		if s.Favorite {
			star = "*"
		}
		if s.Own {
			mine = " (yours)"
		}
		fmt.Fprintf(t.out, "%s %s\n", star, line(s.Story)+mine)
	}
}

func (t *terminal) plain(stories []domain.Story) {
	if len(stories) == 0 {
		fmt.Fprintln(t.out, "nothing here")
	}
	for _, s := range stories {
		fmt.Fprintf(t.out, "  %s\n", line(s))
	}
}

func (t *terminal) summary(s diff.Summary) {
	fmt.Fprintln(t.out, s.String())
	for _, story := range s.Added {
		fmt.Fprintf(t.out, "+ %s\n", line(story))
	}
	for _, story := range s.Removed {
		fmt.Fprintf(t.out, "- %s\n", line(story))
	}
	for _, e := range s.Edited {
		fmt.Fprintf(t.out, "~ %s %s\n", e.After.ID, diff.Title(e))
	}
}

func line(s domain.Story) string {
	host := s.HostName()
	if host == "" {
		host = s.URL
	}
	return fmt.Sprintf("%s  %s (%s) by %s, posted by %s", s.ID, s.Title, host, s.Author, s.Username)
}

// describe turns an error into a message for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		return "you must be logged in to do that"
	case errors.Is(err, remote.ErrTimeout):
		return "the story service took too long to answer, try again"
	case errors.Is(err, remote.ErrNetwork):
		return "could not reach the story service"
	}
	return err.Error()
}
