package nav

import (
	"sort"

	"github.com/metcalfc/rsvp/internal/domain"
)

// Chapters is a document's chapter list sorted by start index.
type Chapters []domain.Chapter

// NewChapters sorts a copy of list.
func NewChapters(list []domain.Chapter) Chapters {
	c := make(Chapters, len(list))
	copy(c, list)
	sort.SliceStable(c, func(i, j int) bool { return c[i].StartIndex < c[j].StartIndex })
	return c
}

// At returns the position in the list of the chapter containing index, or
// -1 when index is before the first chapter.
func (c Chapters) At(index int) int {
	i := sort.Search(len(c), func(i int) bool { return c[i].StartIndex > index })
	return i - 1
}

// Start returns the token index chapter i begins at.
func (c Chapters) Start(i int) (int, bool) {
	if i < 0 || i >= len(c) {
		return 0, false
	}
	return c[i].StartIndex, true
}

// Title returns the title of the chapter containing index.
func (c Chapters) Title(index int) string {
	if i := c.At(index); i >= 0 {
		return c[i].Title
	}
	return ""
}
