package movieapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"cinescope/errs"
	"cinescope/movie"
	"cinescope/movieapi"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.Handler) *movieapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := movieapi.New(srv.URL, movieapi.WithRateLimit(0))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew(t *testing.T) {
	t.Run("should reject a relative url", func(t *testing.T) {
		_, err := movieapi.New("localhost:5000")
		assert.Error(t, err)
	})

	t.Run("should accept a trailing slash", func(t *testing.T) {
		c, err := movieapi.New("http://localhost:5000/")
		assert.NoError(t, err)
		assert.NotNil(t, c)
	})
}

func TestClient_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("should decode the search result", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "The Dark Knight", r.URL.Query().Get("q"))
			_, _ = io.WriteString(w, `{
				"movie": {"title": "The Dark Knight", "imdb_id": "tt0468569", "box_office": "N/A", "is_favorite": true},
				"recommendations": [{"title": "Batman Begins", "year": "2005"}],
				"recommendation_page": 1,
				"has_more_recommendations": true
			}`)
		}))

		result, err := c.Search(ctx, "The Dark Knight")

		require.NoError(t, err)
		assert.Equal(t, "tt0468569", result.Movie.ImdbID)
		assert.True(t, result.Movie.IsFavorite)
		assert.False(t, result.Movie.HasBoxOffice())
		require.Len(t, result.Recommendations, 1)
		assert.Equal(t, "Batman Begins", result.Recommendations[0].Title)
		assert.Equal(t, 1, result.Page)
		assert.True(t, result.HasMore)
	})

	t.Run("should map a not found answer to an application error", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": `Movie "Zzz" not found. Try another title.`})
		}))

		_, err := c.Search(ctx, "Zzz")

		require.Error(t, err)
		assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
		assert.Equal(t, `Movie "Zzz" not found. Try another title.`, errs.ErrorMessage(err))
	})

	t.Run("should map a missing login to unauthorized", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not logged in"})
		}))

		_, err := c.Search(ctx, "Heat")

		assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))
		assert.Equal(t, "Not logged in", errs.ErrorMessage(err))
	})

	t.Run("should use the status text without a payload", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := c.Search(ctx, "Heat")

		assert.Equal(t, errs.EINTERNAL, errs.ErrorCode(err))
		assert.Equal(t, "Bad Gateway", errs.ErrorMessage(err))
	})

	t.Run("should keep an undecodable body as a plain error", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>oops</html>")
		}))

		_, err := c.Search(ctx, "Heat")

		require.Error(t, err)
		assert.False(t, errs.IsApplication(err))
	})
}

func TestClient_Recommendations(t *testing.T) {
	var got map[string]interface{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_recommendations", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"recommendations":          []map[string]string{{"title": "Dunkirk"}},
			"recommendation_page":      2,
			"has_more_recommendations": false,
		})
	}))

	page, err := c.Recommendations(context.Background(), movie.RecommendationQuery{
		Movie:         movie.Movie{Title: "Inception", ImdbID: "tt1375666"},
		Page:          2,
		ExcludeTitles: []string{"Inception", "Tenet"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.False(t, page.HasMore)
	require.Len(t, page.Recommendations, 1)

	assert.Equal(t, float64(2), got["page"])
	assert.Equal(t, []interface{}{"Inception", "Tenet"}, got["exclude_titles"])
	movieData, ok := got["movie_data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Inception", movieData["title"])
}

func TestClient_Favorites(t *testing.T) {
	ctx := context.Background()
	f := movie.Favorite{MovieID: "tt1375666", MovieTitle: "Inception"}

	t.Run("should return the server message", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body movie.Favorite
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, f, body)
			switch r.URL.Path {
			case "/add_favorite":
				writeJSON(w, http.StatusOK, map[string]string{"message": "Movie already in favorites"})
			case "/remove_favorite":
				writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from favorites"})
			}
		}))

		msg, err := c.AddFavorite(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, "Movie already in favorites", msg)

		msg, err = c.RemoveFavorite(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, "Removed from favorites", msg)
	})

	t.Run("should reject an answer without message", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		}))

		_, err := c.AddFavorite(ctx, f)

		assert.Equal(t, movie.ErrFavoriteFailure, err)
	})

	t.Run("should surface an error payload", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing movie data"})
		}))

		_, err := c.RemoveFavorite(ctx, f)

		assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
		assert.Equal(t, "Missing movie data", errs.ErrorMessage(err))
	})
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()

	backend := func() http.Handler {
		mux := http.NewServeMux()
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("username") == "neo" && r.PostForm.Get("password") == "trinity" {
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
				http.Redirect(w, r, "/main", http.StatusFound)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, "<form>login</form>")
		})
		mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie("session"); err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not logged in"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"movie": map[string]string{"title": "The Matrix"}})
		})
		return mux
	}

	t.Run("should keep the session cookie after login", func(t *testing.T) {
		c := newClient(t, backend())

		require.NoError(t, c.Login(ctx, "neo", "trinity"))
		result, err := c.Search(ctx, "The Matrix")

		require.NoError(t, err)
		assert.Equal(t, "The Matrix", result.Movie.Title)
	})

	t.Run("should reject wrong credentials", func(t *testing.T) {
		c := newClient(t, backend())

		err := c.Login(ctx, "neo", "smith")

		assert.Equal(t, movieapi.ErrInvalidCredentials, err)
	})

	t.Run("should not call the backend without credentials", func(t *testing.T) {
		var calls int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))

		assert.Equal(t, movieapi.ErrInvalidCredentials, c.Login(ctx, " ", ""))
		assert.Zero(t, atomic.LoadInt32(&calls))
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database is locked"})
	}))

	for i := 0; i < 5; i++ {
		_, err := c.Search(context.Background(), "Heat")
		assert.Equal(t, "database is locked", errs.ErrorMessage(err))
	}
	_, err := c.Search(context.Background(), "Heat")

	require.Error(t, err)
	assert.False(t, errs.IsApplication(err))
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestClient_NotFoundDoesNotTrip(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}))

	for i := 0; i < 7; i++ {
		_, err := c.Search(context.Background(), "Zzz")
		assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
	}
	assert.Equal(t, int32(7), atomic.LoadInt32(&calls))
}
