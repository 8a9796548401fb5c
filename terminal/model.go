package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cinescope/errs"
	"cinescope/movie"
	"cinescope/pkg/sentry"
	"cinescope/search"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusResults
)

// doneMsg ends a controller call started by the model.
type doneMsg struct {
	action string
	err    error
}

type noticeExpiredMsg struct{ id int }

type notice struct {
	id int
	search.Notice
}

// Model is the interactive search screen. Controller calls run as commands;
// what they render comes back through ProgramView messages.
type Model struct {
	ctx     context.Context
	ctrl    *search.Controller
	initial string
	logger  *slog.Logger

	keys     keyMap
	help     help.Model
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	focus    focusArea
	width    int

	query    string
	loading  bool
	errMsg   string
	movie    *movie.Movie
	favorite bool
	recs     []movie.Recommendation
	hasMore  bool
	busy     bool
	notices  []notice
	noticeID int
}

type ModelOptions func(m *Model)

func WithModelLogger(l *slog.Logger) ModelOptions {
	return func(m *Model) {
		m.logger = l
	}
}

// NewModel builds the screen for ctrl. initial is searched on start, the same
// way a page load with a search parameter is.
func NewModel(ctx context.Context, ctrl *search.Controller, initial string, options ...ModelOptions) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter a movie title..."
	ti.CharLimit = 200
	ti.Width = 48
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		initial:  initial,
		logger:   slog.Default(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		width:    80,
	}
	for _, fn := range options {
		fn(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	initial := m.initial
	return tea.Batch(
		textinput.Blink,
		m.run("start", func(ctx context.Context) error {
			return m.ctrl.Start(ctx, initial)
		}),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-12, 5)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case queryMsg:
		m.input.SetValue(msg.query)
		return m, nil

	case loadingMsg:
		m.query = msg.query
		m.clearResults()
		m.loading = true
		m.refresh()
		return m, m.spinner.Tick

	case resultsMsg:
		r := msg.results.Movie
		m.clearResults()
		m.movie = &r
		m.favorite = r.IsFavorite
		m.recs = append(m.recs, msg.results.Recommendations...)
		m.hasMore = msg.results.HasMore
		m.refresh()
		m.viewport.GotoTop()
		return m, nil

	case errorMsg:
		m.clearResults()
		m.errMsg = msg.message
		m.refresh()
		return m, nil

	case busyMsg:
		m.busy = msg.busy
		if m.busy {
			return m, m.spinner.Tick
		}
		return m, nil

	case appendMsg:
		m.recs = append(m.recs, msg.recs...)
		m.hasMore = msg.hasMore
		m.busy = false
		m.refresh()
		return m, nil

	case favoriteMsg:
		if m.movie != nil && m.movie.ImdbID == msg.movieID {
			m.favorite = msg.favorite
			m.refresh()
		}
		return m, nil

	case noticeMsg:
		m.noticeID++
		id := m.noticeID
		m.notices = append(m.notices, notice{id: id, Notice: msg.notice})
		if msg.notice.TTL > 0 {
			return m, tea.Tick(msg.notice.TTL, func(time.Time) tea.Msg {
				return noticeExpiredMsg{id: id}
			})
		}
		return m, nil

	case noticeExpiredMsg:
		live := m.notices[:0]
		for _, n := range m.notices {
			if n.id != msg.id {
				live = append(live, n)
			}
		}
		m.notices = live
		return m, nil

	case doneMsg:
		m.report(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search) && m.focus == focusInput:
		query := m.input.Value()
		return m, m.run("search", func(ctx context.Context) error {
			return m.ctrl.Search(ctx, query)
		})

	case key.Matches(msg, m.keys.LoadMore):
		if m.movie == nil || !m.hasMore || m.busy {
			return m, nil
		}
		return m, m.run("load more", m.ctrl.LoadMoreRecommendations)

	case key.Matches(msg, m.keys.Favorite):
		if m.movie == nil || !m.movie.HasID() {
			return m, nil
		}
		id, title := m.movie.ImdbID, m.movie.Title
		return m, m.run("toggle favorite", func(ctx context.Context) error {
			return m.ctrl.ToggleFavorite(ctx, id, title)
		})

	case key.Matches(msg, m.keys.Dismiss):
		m.notices = nil
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.focus = focusResults
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Details) && m.focus == focusResults:
		n := int(msg.String()[0] - '0')
		if n > len(m.recs) {
			return m, nil
		}
		title := m.recs[n-1].Title
		return m, m.run("view details", func(ctx context.Context) error {
			return m.ctrl.TriggerSearch(ctx, title)
		})
	}

	var cmd tea.Cmd
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{action: action, err: fn(ctx)}
	}
}

// report logs failed calls. The user already sees them through the view.
func (m Model) report(msg doneMsg) {
	if search.IsRejected(msg.err) {
		return
	}
	m.logger.Info(msg.action+" failed", "error", msg.err)
	if errs.ErrorCode(msg.err) == errs.EINTERNAL {
		sentry.WithTags(map[string]string{"action": msg.action}).Error(msg.err)
	}
}

func (m *Model) clearResults() {
	m.loading = false
	m.errMsg = ""
	m.movie = nil
	m.favorite = false
	m.recs = nil
	m.hasMore = false
	m.busy = false
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.details())
}

func (m Model) details() string {
	if m.movie == nil {
		return ""
	}

	var b strings.Builder
	title := Sanitize(m.movie.Title)
	if m.favorite {
		title += " ★"
	}
	b.WriteString(movieTitleStyle.Render(title))
	b.WriteString("\n")
	for _, f := range movieFields(*m.movie) {
		b.WriteString(labelStyle.Render(f.label) + " " + f.value + "\n")
	}
	if summary := Sanitize(m.movie.Summary); summary != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(max(m.width-2, 20)).Render(summary) + "\n")
	}

	b.WriteString(sectionStyle.Render("Recommendations"))
	b.WriteString("\n")
	if len(m.recs) == 0 {
		b.WriteString(mutedStyle.Render("none") + "\n")
	}
	for i, r := range m.recs {
		b.WriteString(cardLine(i+1, r.Display()) + "\n")
	}
	return b.String()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("CineScope"))
	b.WriteString("\n")

	box := inputStyle
	if m.focus == focusInput {
		box = focusedInputStyle
	}
	b.WriteString(box.Render(m.input.View()))
	b.WriteString("\n")

	for _, n := range m.notices {
		b.WriteString(noticeStyle(n.Kind).Render(Sanitize(n.Message)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(fmt.Sprintf("%s Searching for %q...", m.spinner.View(), Sanitize(m.query)))
	case m.errMsg != "":
		b.WriteString(errorStyle.Render(Sanitize(m.errMsg)))
	case m.movie != nil:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		switch {
		case m.busy:
			b.WriteString(m.spinner.View() + " Loading more recommendations...")
		case m.hasMore:
			b.WriteString(mutedStyle.Render("More recommendations available."))
		}
	default:
		b.WriteString(mutedStyle.Render("Type a movie title and press enter."))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
