package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/doc2dev/doc2dev/internal/client"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// eventMsg carries one progress event from the websocket.
type eventMsg client.ProgressEvent

// streamDoneMsg signals the websocket closed.
type streamDoneMsg struct {
	err error
}

// watchModel is the bubbletea model rendering live ingestion progress.
type watchModel struct {
	outcome  *client.DownloadResult
	events   chan tea.Msg
	progress progress.Model
	theme    Theme

	stage       string
	message     string
	current     int
	total       int
	done        bool
	failed      bool
	failMessage string
	quitting    bool
}

// newWatchModel creates a progress model fed by the events channel.
func newWatchModel(outcome *client.DownloadResult, events chan tea.Msg) watchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return watchModel{
		outcome:  outcome,
		events:   events,
		progress: prog,
		theme:    defaultTheme,
		stage:    "download",
		message:  "waiting for server...",
	}
}

// nextEvent waits for the next websocket message.
func (m watchModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Init starts listening for events.
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.nextEvent(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case eventMsg:
		m.stage = msg.Type
		m.message = msg.Message
		m.current = msg.Current
		m.total = msg.Total

		switch {
		case msg.Status == "error" && msg.Type != "database":
			m.done = true
			m.failed = true
			m.failMessage = msg.Message
			return m, tea.Quit
		case msg.Type == "database":
			// Terminal event either way; a database error still leaves the
			// embeddings queryable.
			m.done = true
			return m, tea.Quit
		}
		return m, m.nextEvent()

	case streamDoneMsg:
		if !m.done {
			m.done = true
			if msg.err != nil {
				m.message = "progress stream closed"
			}
		}
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m watchModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.current) / float64(m.total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.stage))
	bar := m.progress.ViewAs(pct)
	counts := ""
	if m.total > 0 {
		counts = fmt.Sprintf("%d/%d", m.current, m.total)
	}
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s\n%s\n", status, bar, counts, m.message, hint)
}

func (m watchModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nIngestion of %s continues in background.\nUse 'doc2dev list' to check its status.\n",
			m.outcome.RepoPath)
		return m.theme.hintStyle().Render(msg)
	}

	if m.failed {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Ingestion failed: %s\n", m.failMessage))
	}

	var out string
	out += m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	out += fmt.Sprintf("  %s\n", m.message)
	out += fmt.Sprintf("  Table:     %s\n", m.outcome.TableName)
	out += fmt.Sprintf("  Query URL: %s\n", m.outcome.QueryURL)
	return out
}
