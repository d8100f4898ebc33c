// Package nav finds places in a token sequence: search hits, bookmarks and
// chapter starts.
package nav

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// checkEvery is how many tokens Search scans between cancellation checks.
const checkEvery = 4096

// Search returns the ascending indices of tokens containing query, compared
// with Unicode case folding. A blank query matches nothing.
func Search(ctx context.Context, tokens []string, query string) ([]int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var hits []int
	for i, tok := range tokens {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if strings.Contains(fold.String(tok), needle) {
			hits = append(hits, i)
		}
	}
	return hits, nil
}

// Results walks search hits in order, wrapping at both ends.
type Results struct {
	Query string
	Hits  []int
	pos   int
}

// NewResults positions the cursor on the first hit at or after from.
func NewResults(query string, hits []int, from int) *Results {
	r := &Results{Query: query, Hits: hits}
	for i, h := range hits {
		if h >= from {
			r.pos = i
			return r
		}
	}
	return r
}

// Len returns the number of hits.
func (r *Results) Len() int { return len(r.Hits) }

// Current returns the hit under the cursor.
func (r *Results) Current() (int, bool) {
	if len(r.Hits) == 0 {
		return 0, false
	}
	return r.Hits[r.pos], true
}

// Position returns the 1-based cursor position for display.
func (r *Results) Position() int {
	if len(r.Hits) == 0 {
		return 0
	}
	return r.pos + 1
}

// Next moves to the following hit.
func (r *Results) Next() (int, bool) {
	if len(r.Hits) == 0 {
		return 0, false
	}
	r.pos = (r.pos + 1) % len(r.Hits)
	return r.Hits[r.pos], true
}

// Prev moves to the preceding hit.
func (r *Results) Prev() (int, bool) {
	if len(r.Hits) == 0 {
		return 0, false
	}
	r.pos = (r.pos - 1 + len(r.Hits)) % len(r.Hits)
	return r.Hits[r.pos], true
}
