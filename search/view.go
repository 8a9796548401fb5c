package search

import (
	"time"

	"cinescope/movie"
)

const (
	SuccessNoticeTTL = 3 * time.Second
	ErrorNoticeTTL   = 5 * time.Second
)

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeWarning
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	default:
		return "error"
	}
}

// Notice is a message shown next to the results. A zero TTL means it stays
// until the user dismisses it.
type Notice struct {
	Kind    NoticeKind
	Message string
	TTL     time.Duration
}

// Results is what replaces the results area after a successful search.
type Results struct {
	Movie           movie.Movie
	Recommendations []movie.Recommendation
	HasMore         bool
}

// View is the rendering boundary of the Controller. Methods are called with the
// controller lock held and must not call back into the Controller. Every
// server-supplied string must be escaped by the implementation.
type View interface {
	// SetQuery puts query into the search input.
	SetQuery(query string)
	// ShowLoading replaces the results area with a loading indicator.
	ShowLoading(query string)
	// ShowResults replaces the results area. HasMore controls the load-more trigger.
	ShowResults(r Results)
	// ShowError replaces the results area with a single error message.
	ShowError(message string)
	// SetLoadMoreBusy disables (true) or re-enables (false) the load-more trigger.
	SetLoadMoreBusy(busy bool)
	// AppendRecommendations adds cards below the existing ones and ends the busy
	// state. hasMore false removes the trigger.
	AppendRecommendations(recs []movie.Recommendation, hasMore bool)
	// SetFavorite sets the favorite button state of movieID.
	SetFavorite(movieID string, favorite bool)
	ShowNotice(n Notice)
}
