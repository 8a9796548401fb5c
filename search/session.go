package search

import "cinescope/movie"

// Session is the state of one successful search: the primary movie, every title
// rendered so far and the recommendation cursor. It is a value; Merge returns a
// new Session and never mutates the receiver.
//
// The shown set never holds duplicates and always contains the primary title,
// so the primary movie cannot come back as a recommendation.
type Session struct {
	Generation uint64
	Movie      movie.Movie
	Page       int
	HasMore    bool

	shown []string
	seen  map[string]struct{}
}

// NewSession seeds a session from a search result and returns it together with
// the recommendations worth rendering: titled cards not shown yet and not the
// primary, plus every untitled card.
func NewSession(gen uint64, r movie.SearchResult) (Session, []movie.Recommendation) {
	s := Session{
		Generation: gen,
		Movie:      r.Movie,
		Page:       r.Page,
		HasMore:    r.HasMore,
		seen:       make(map[string]struct{}),
	}
	if s.Page < 1 {
		s.Page = 1
	}
	s.add(r.Movie.Title)

	return s, s.absorb(r.Recommendations)
}

// Active reports whether s came from a successful search.
func (s Session) Active() bool {
	return s.Generation != 0
}

// Shown returns the shown titles in render order.
func (s Session) Shown() []string {
	out := make([]string, len(s.shown))
	copy(out, s.shown)
	return out
}

func (s Session) HasShown(title string) bool {
	_, ok := s.seen[title]
	return ok
}

// NextQuery builds the load-more request: the next page and every title shown so far.
func (s Session) NextQuery() movie.RecommendationQuery {
	return movie.RecommendationQuery{
		Movie:         s.Movie,
		Page:          s.Page + 1,
		ExcludeTitles: s.Shown(),
	}
}

// Merge applies a recommendation page. Titles already shown are dropped even if
// the server sent them, so merging the same page twice adds no titled cards.
func (s Session) Merge(p movie.RecommendationPage) (Session, []movie.Recommendation) {
	next := s.clone()
	next.HasMore = p.HasMore
	if p.Page > 0 {
		next.Page = p.Page
	} else {
		next.Page = s.Page + 1
	}

	return next, next.absorb(p.Recommendations)
}

func (s *Session) absorb(recs []movie.Recommendation) []movie.Recommendation {
	fresh := make([]movie.Recommendation, 0, len(recs))
	for _, rec := range recs {
		// Untitled cards render as "Unknown" but cannot be excluded by title.
		if rec.Title == "" || s.add(rec.Title) {
			fresh = append(fresh, rec)
		}
	}
	return fresh
}

func (s *Session) add(title string) bool {
	if title == "" {
		return false
	}
	if _, ok := s.seen[title]; ok {
		return false
	}
	s.seen[title] = struct{}{}
	s.shown = append(s.shown, title)
	return true
}

func (s Session) clone() Session {
	c := s
	c.shown = make([]string, len(s.shown))
	copy(c.shown, s.shown)
	c.seen = make(map[string]struct{}, len(s.seen))
	for k := range s.seen {
		c.seen[k] = struct{}{}
	}
	return c
}
