package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	SourceListView
	TargetListView
	ConfirmView
	TransferView
	ResultView
)

// Copier is the part of [tasks.Engine] the TUI drives.
type Copier interface {
	ListPlaylists(ctx context.Context, session services.Session, mine bool) (*models.PlaylistListing, error)
	CopyPlaylist(ctx context.Context, sourceID, targetID string, progress chan<- tasks.ProgressUpdate) (*models.TransferResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	engine   Copier
	session  services.Session
	view     ViewState
	width    int
	height   int
	listing  *models.PlaylistListing
	sources  list.Model
	targets  list.Model
	source   playlistItem
	target   playlistItem
	progress tasks.ProgressUpdate
	updates  chan tasks.ProgressUpdate
	done     chan copyCompleteMsg
	bar      progress.Model
	spinner  spinner.Model
	result   *models.TransferResult
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a TUI model that copies between the playlists of session's user.
func NewModel(ctx context.Context, engine Copier, session services.Session) *Model {
	return &Model{
		ctx:     ctx,
		engine:  engine,
		session: session,
		view:    LoadingView,
		bar:     progress.New(progress.WithDefaultGradient()),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// State returns the current view.
func (m *Model) State() ViewState { return m.view }

// Result returns the last copy result, if any.
func (m *Model) Result() (*models.TransferResult, error) { return m.result, m.err }

// Init starts the spinner and fetches the user's playlists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchPlaylists())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if m.view != LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case LoadingView, TransferView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case SourceListView:
			return m.handleSourceKeys(msg)
		case TargetListView:
			return m.handleTargetKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.listing = msg.listing
		m.sources = m.newList("Copy from", "")
		m.view = SourceListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case copyCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.updates = nil
		m.done = nil
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Loading playlists...\n", m.spinner.View())
	case SourceListView:
		return m.renderList(m.sources, m.keys.enter, m.keys.quit)
	case TargetListView:
		return m.renderList(m.targets, m.keys.enter, m.keys.back, m.keys.quit)
	case ConfirmView:
		return m.renderConfirm()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) newList(title, exclude string) list.Model {
	items := playlistItems(m.listing.Playlists, m.session.UserID, exclude)
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetSize(max(m.width-4, 0), max(m.height-8, 0))
	return l
}

func (m *Model) resize() {
	w, h := max(m.width-4, 0), max(m.height-8, 0)
	if m.listing != nil {
		m.sources.SetSize(w, h)
		m.targets.SetSize(w, h)
	}
	m.bar.Width = max(min(m.width-4, 60), 10)
}

func (m *Model) handleSourceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sources.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.sources.SelectedItem().(playlistItem); ok {
				m.source = item
				m.targets = m.newList(fmt.Sprintf("Copy '%s' to", item.Title()), item.ID())
				m.view = TargetListView
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.sources, cmd = m.sources.Update(msg)
	return m, cmd
}

func (m *Model) handleTargetKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.targets.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = SourceListView
			return m, nil
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.targets.SelectedItem().(playlistItem); ok {
				m.target = item
				m.view = ConfirmView
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.targets, cmd = m.targets.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.back):
		m.view = TargetListView
		return m, nil
	case key.Matches(msg, m.keys.confirm):
		m.view = TransferView
		return m, m.startCopy()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.again):
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		if m.listing == nil {
			m.view = LoadingView
			return m, tea.Batch(m.spinner.Tick, m.fetchPlaylists())
		}
		m.view = SourceListView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SourceListView:
		m.sources, cmd = m.sources.Update(msg)
	case TargetListView:
		m.targets, cmd = m.targets.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		listing, err := m.engine.ListPlaylists(m.ctx, m.session, false)
		return playlistsFetchedMsg{listing: listing, err: err}
	}
}

// startCopy runs the copy in the background. The goroutine is the only writer, so it closes updates.
func (m *Model) startCopy() tea.Cmd {
	updates := make(chan tasks.ProgressUpdate, 50)
	done := make(chan copyCompleteMsg, 1)
	m.updates = updates
	m.done = done

	sourceID, targetID := m.source.ID(), m.target.ID()
	go func() {
		result, err := m.engine.CopyPlaylist(m.ctx, sourceID, targetID, updates)
		close(updates)
		done <- copyCompleteMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		if updates == nil {
			return copyCompleteMsg{result: m.result, err: m.err}
		}
		if update, ok := <-updates; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Copy playlist?")

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%d tracks)\n", styles.label.Render("From"), m.source.Title(), m.source.row.Int("total"))
	fmt.Fprintf(&b, "%s %s (%d tracks)\n", styles.label.Render("To"), m.target.Title(), m.target.row.Int("total"))
	if !m.target.mine {
		b.WriteString(styles.warn.Render("\nThe target is owned by someone else; Spotify may reject the write.") + "\n")
	}

	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), m.help.ShortHelpView([]key.Binding{m.keys.confirm, m.keys.cancel, m.keys.quit}))
}

func (m *Model) renderTransfer() string {
	title := styles.title.Render(fmt.Sprintf("Copying '%s' → '%s'", m.source.Title(), m.target.Title()))

	var phase string
	switch m.progress.Phase {
	case tasks.Fetching:
		phase = "Fetching source tracks..."
	case tasks.Transferring:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s\n", title, phase, m.bar.ViewAs(m.progress.Percent()), styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.again, m.keys.quit})

	if m.err != nil {
		msg := fmt.Sprintf("Copy failed: %v", m.err)
		if m.result != nil && m.result.ItemsTransferred > 0 {
			msg += fmt.Sprintf("\n%d of %d tracks were added before the failure.", m.result.ItemsTransferred, m.result.ItemsTotal)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Copy complete")
	info := fmt.Sprintf(
		"\n%s %s\n%s %s\n%s %d/%d in %d batches",
		styles.label.Render("From"), m.source.Title(),
		styles.label.Render("To"), m.target.Title(),
		styles.label.Render("Tracks"), m.result.ItemsTransferred, m.result.ItemsTotal, m.result.Batches,
	)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
