// Package diff summarizes how the feed changed between two loads.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sidereusnuntius/storyfeed/internal/domain"
)

var dmp *diffmatchpatch.DiffMatchPatch

func init() {
	dmp = diffmatchpatch.New()
}

type Edit struct {
	Before domain.Story
	After  domain.Story
}

// Summary lists what changed on the feed. Moved holds the stories whose position changed relative to the
// others; stories pushed down by new arrivals did not move.
type Summary struct {
	Added   []domain.Story
	Removed []domain.Story
	Moved   []domain.Story
	Edited  []Edit
}

func (s Summary) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Moved) == 0 && len(s.Edited) == 0
}

func (s Summary) String() string {
	if s.Empty() {
		return "no changes"
	}
	return fmt.Sprintf("%d new, %d removed, %d moved, %d edited", len(s.Added), len(s.Removed), len(s.Moved), len(s.Edited))
}

// Feed compares two versions of the feed. Each story is reduced to a line holding its id, so that a line diff
// of the two versions yields the inserted and deleted stories.
func Feed(before, after []domain.Story) (s Summary) {
	old := index(before)
	current := index(after)

	a, b, lines := dmp.DiffLinesToChars(ids(before), ids(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		for _, id := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch prior, existed := old[id]; {
			case d.Type == diffmatchpatch.DiffDelete:
				if _, exists := current[id]; !exists {
					s.Removed = append(s.Removed, prior)
				}
			case existed:
				s.Moved = append(s.Moved, current[id])
			default:
				s.Added = append(s.Added, current[id])
			}
		}
	}

	for _, story := range after {
		if prior, ok := old[story.ID]; ok && edited(prior, story) {
			s.Edited = append(s.Edited, Edit{Before: prior, After: story})
		}
	}
	return
}

// Title renders the change to a story's title with ANSI colors: deletions in red, insertions in green.
func Title(e Edit) string {
	diffs := dmp.DiffMain(e.Before.Title, e.After.Title, false)
	return dmp.DiffPrettyText(dmp.DiffCleanupSemantic(diffs))
}

func ids(stories []domain.Story) string {
	var b strings.Builder
	for _, s := range stories {
		b.WriteString(s.ID)
		b.WriteByte('\n')
	}
	return b.String()
}

func index(stories []domain.Story) map[string]domain.Story {
	m := make(map[string]domain.Story, len(stories))
	for _, s := range stories {
		m[s.ID] = s
	}
	return m
}

func edited(a, b domain.Story) bool {
	return a.Title != b.Title || a.Author != b.Author || a.URL != b.URL
}
