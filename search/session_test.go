package search_test

import (
	"testing"

	"cinescope/movie"
	"cinescope/search"

	"github.com/stretchr/testify/assert"
)

func recs(titles ...string) []movie.Recommendation {
	out := make([]movie.Recommendation, len(titles))
	for i, title := range titles {
		out[i] = movie.Recommendation{Title: title}
	}
	return out
}

func titles(rs []movie.Recommendation) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func TestNewSession(t *testing.T) {
	t.Run("should seed the shown set with the primary and every recommendation", func(t *testing.T) {
		s, fresh := search.NewSession(1, movie.SearchResult{
			Movie:           movie.Movie{Title: "Inception"},
			Recommendations: recs("Interstellar", "Tenet", "Memento"),
			Page:            1,
			HasMore:         true,
		})

		assert.Equal(t, []string{"Inception", "Interstellar", "Tenet", "Memento"}, s.Shown())
		assert.Equal(t, []string{"Interstellar", "Tenet", "Memento"}, titles(fresh))
		assert.True(t, s.Active())
		assert.True(t, s.HasMore)
		assert.Equal(t, 1, s.Page)
	})

	t.Run("should drop duplicates and the primary itself", func(t *testing.T) {
		s, fresh := search.NewSession(1, movie.SearchResult{
			Movie:           movie.Movie{Title: "Inception"},
			Recommendations: recs("Inception", "Tenet", "Tenet"),
		})

		assert.Equal(t, []string{"Inception", "Tenet"}, s.Shown())
		assert.Equal(t, []string{"Tenet"}, titles(fresh))
	})

	t.Run("should keep untitled cards out of the shown set", func(t *testing.T) {
		s, fresh := search.NewSession(1, movie.SearchResult{
			Movie:           movie.Movie{Title: "Inception"},
			Recommendations: recs("Tenet", "", "Memento", ""),
		})

		assert.Equal(t, []string{"Tenet", "", "Memento", ""}, titles(fresh))
		assert.Equal(t, "Unknown", fresh[1].Display().Title)
		assert.Equal(t, []string{"Inception", "Tenet", "Memento"}, s.Shown())
		assert.False(t, s.HasShown(""))
	})

	t.Run("should default a missing page to one", func(t *testing.T) {
		s, _ := search.NewSession(3, movie.SearchResult{Movie: movie.Movie{Title: "X"}})

		assert.Equal(t, 1, s.Page)
		assert.Equal(t, uint64(3), s.Generation)
	})
}

func TestSession_Merge(t *testing.T) {
	base, _ := search.NewSession(1, movie.SearchResult{
		Movie:           movie.Movie{Title: "Inception"},
		Recommendations: recs("Interstellar", "Tenet", "Memento"),
		Page:            1,
		HasMore:         true,
	})

	t.Run("should append only titles not shown yet", func(t *testing.T) {
		next, fresh := base.Merge(movie.RecommendationPage{
			Recommendations: recs("Tenet", "Dunkirk", "Prestige"),
			Page:            2,
			HasMore:         true,
		})

		assert.Equal(t, []string{"Dunkirk", "Prestige"}, titles(fresh))
		assert.Equal(t, 2, next.Page)
		assert.Len(t, next.Shown(), 6)
	})

	t.Run("should not mutate the receiver", func(t *testing.T) {
		_, _ = base.Merge(movie.RecommendationPage{Recommendations: recs("Dunkirk"), Page: 2})

		assert.Len(t, base.Shown(), 4)
		assert.False(t, base.HasShown("Dunkirk"))
	})

	t.Run("should be idempotent for the same page", func(t *testing.T) {
		page := movie.RecommendationPage{Recommendations: recs("Dunkirk"), Page: 2, HasMore: true}
		once, _ := base.Merge(page)
		twice, fresh := once.Merge(page)

		assert.Empty(t, fresh)
		assert.Equal(t, once.Shown(), twice.Shown())
	})

	t.Run("should render untitled cards without excluding them later", func(t *testing.T) {
		next, fresh := base.Merge(movie.RecommendationPage{
			Recommendations: recs("", "Dunkirk"),
			Page:            2,
			HasMore:         true,
		})

		assert.Equal(t, []string{"", "Dunkirk"}, titles(fresh))
		assert.Equal(t, "Unknown", fresh[0].Display().Title)
		assert.NotContains(t, next.NextQuery().ExcludeTitles, "")
	})

	t.Run("should advance the page when the server omits it", func(t *testing.T) {
		next, _ := base.Merge(movie.RecommendationPage{})

		assert.Equal(t, 2, next.Page)
		assert.False(t, next.HasMore)
	})
}

func TestSession_NextQuery(t *testing.T) {
	s, _ := search.NewSession(1, movie.SearchResult{
		Movie:           movie.Movie{Title: "Inception", ImdbID: "tt1375666"},
		Recommendations: recs("Interstellar"),
		Page:            1,
	})

	q := s.NextQuery()

	assert.Equal(t, 2, q.Page)
	assert.Equal(t, "tt1375666", q.Movie.ImdbID)
	assert.Equal(t, []string{"Inception", "Interstellar"}, q.ExcludeTitles)
}
