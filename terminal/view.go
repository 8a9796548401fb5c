package terminal

import (
	"sync"

	"cinescope/movie"
	"cinescope/search"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages sent by ProgramView. The controller calls the view from command
// goroutines; the Model applies these on the program loop.
type (
	queryMsg struct{ query string }

	loadingMsg struct{ query string }

	resultsMsg struct{ results search.Results }

	errorMsg struct{ message string }

	busyMsg struct{ busy bool }

	appendMsg struct {
		recs    []movie.Recommendation
		hasMore bool
	}

	favoriteMsg struct {
		movieID  string
		favorite bool
	}

	noticeMsg struct{ notice search.Notice }
)

// Sender is the part of *tea.Program that ProgramView needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramView is a search.View that forwards every call to a running program.
// Calls made before Attach are dropped.
type ProgramView struct {
	mu     sync.RWMutex
	sender Sender
}

var _ search.View = (*ProgramView)(nil)

func NewProgramView() *ProgramView {
	return &ProgramView{}
}

func (v *ProgramView) Attach(s Sender) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sender = s
}

func (v *ProgramView) send(msg tea.Msg) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.sender != nil {
		v.sender.Send(msg)
	}
}

func (v *ProgramView) SetQuery(query string)        { v.send(queryMsg{query}) }
func (v *ProgramView) ShowLoading(query string)     { v.send(loadingMsg{query}) }
func (v *ProgramView) ShowResults(r search.Results) { v.send(resultsMsg{r}) }
func (v *ProgramView) ShowError(message string)     { v.send(errorMsg{message}) }
func (v *ProgramView) SetLoadMoreBusy(busy bool)    { v.send(busyMsg{busy}) }
func (v *ProgramView) ShowNotice(n search.Notice)   { v.send(noticeMsg{n}) }

func (v *ProgramView) AppendRecommendations(recs []movie.Recommendation, hasMore bool) {
	v.send(appendMsg{recs: append([]movie.Recommendation(nil), recs...), hasMore: hasMore})
}

func (v *ProgramView) SetFavorite(movieID string, favorite bool) {
	v.send(favoriteMsg{movieID: movieID, favorite: favorite})
}
