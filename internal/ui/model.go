package ui

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"greptide/internal/config"
	"greptide/internal/domain"
	"greptide/internal/eventbus"
	"greptide/internal/search"
	"greptide/internal/ui/views"
)

// inputMode tracks which text input owns the keyboard
type inputMode int

const (
	modeSearch inputMode = iota
	modeSettings
)

// Model represents the UI state
type Model struct {
	bus         eventbus.EventBus
	coordinator *search.Coordinator
	config      *config.Config
	root        string

	queryInput textinput.Model
	argsInput  textinput.Model
	mode       inputMode

	results        domain.ResultSet
	selectedIndex  int
	viewportOffset int
	viewportHeight int
	width          int
	height         int

	searching     bool
	searched      bool
	startedGen    uint64 // newest run the UI has seen start
	renderedGen   uint64 // newest run whose outcome has been rendered
	statusMessage string

	renderer *views.Renderer
	opener   *Opener
}

// NewModel creates a new UI model
func NewModel(bus eventbus.EventBus, coordinator *search.Coordinator, cfg *config.Config, root string) *Model {
	queryInput := textinput.New()
	queryInput.Placeholder = "pattern"
	queryInput.Prompt = ""
	queryInput.Focus()

	argsInput := textinput.New()
	argsInput.Placeholder = "e.g. -i --glob '*.go'"
	argsInput.Prompt = ""

	return &Model{
		bus:            bus,
		coordinator:    coordinator,
		config:         cfg,
		root:           root,
		queryInput:     queryInput,
		argsInput:      argsInput,
		viewportHeight: 20, // updated on first WindowSizeMsg
		renderer:       views.NewRenderer(),
		opener:         NewOpener(),
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.opener.SetProgram(p)
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportHeight()
		return m, nil

	case tickMsg:
		return m, tick()

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.statusMessage = "editor failed: " + msg.err.Error()
			return m, nil
		}
		// Primary activation closes the search view once the editor is done
		m.coordinator.Close()
		return m, tea.Quit

	case pagerFinishedMsg:
		if msg.err != nil {
			m.statusMessage = "preview failed: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleEvent processes domain events forwarded from the bus. Search events
// carry the run generation; anything older than the newest generation seen
// is dropped, so a stale run can never overwrite a newer render even if its
// events arrive late.
func (m *Model) handleEvent(event eventbus.DomainEvent) {
	switch e := event.(type) {
	case eventbus.SearchStartedEvent:
		if e.Gen < m.startedGen || e.Gen <= m.renderedGen {
			return
		}
		m.startedGen = e.Gen
		m.searching = true

	case eventbus.SearchCompletedEvent:
		if !m.acceptOutcome(e.Gen) {
			return
		}
		m.searching = false
		m.searched = true
		m.statusMessage = ""
		m.replaceResults(e.Results)

	case eventbus.SearchFailedEvent:
		if !m.acceptOutcome(e.Gen) {
			return
		}
		// Rendered the same as an empty result; the log has the details
		m.searching = false
		m.searched = true
		m.statusMessage = ""
		m.replaceResults(domain.ResultSet{})

	case eventbus.ErrorEvent:
		m.statusMessage = e.Message
	}
}

// acceptOutcome reports whether a run's result may be rendered, and records
// it as the newest rendered generation when it may.
func (m *Model) acceptOutcome(gen uint64) bool {
	if gen < m.startedGen || gen < m.renderedGen {
		return false
	}
	m.renderedGen = gen
	if gen > m.startedGen {
		m.startedGen = gen
	}
	return true
}

// replaceResults swaps in a new result list and resets the cursor
func (m *Model) replaceResults(rs domain.ResultSet) {
	m.results = rs
	m.selectedIndex = 0
	m.viewportOffset = 0
}

// handleKey processes keyboard input
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.coordinator.Close()
		return m, tea.Quit
	}

	if m.mode == modeSettings {
		return m.handleSettingsKey(msg)
	}

	switch msg.String() {
	case "esc":
		if m.queryInput.Value() != "" {
			m.queryInput.SetValue("")
			m.coordinator.OnInput("")
			return m, nil
		}
		m.coordinator.Close()
		return m, tea.Quit

	case "enter":
		if match, ok := m.selectedMatch(); ok {
			return m, m.opener.OpenInEditor(m.matchFilePath(match), match.LineNumber)
		}
		return m, nil

	case "ctrl+o":
		if match, ok := m.selectedMatch(); ok {
			return m, m.opener.PreviewInPager(m.matchFilePath(match))
		}
		return m, nil

	case "ctrl+e":
		m.mode = modeSettings
		m.argsInput.SetValue(m.config.ExtraArgs)
		m.argsInput.Focus()
		m.queryInput.Blur()
		return m, nil

	case "up", "ctrl+p":
		m.moveSelection(-1)
		return m, nil

	case "down", "ctrl+n":
		m.moveSelection(1)
		return m, nil

	case "pgup":
		m.moveSelection(-m.viewportHeight)
		return m, nil

	case "pgdown":
		m.moveSelection(m.viewportHeight)
		return m, nil
	}

	// Everything else edits the query
	before := m.queryInput.Value()
	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	if after := m.queryInput.Value(); after != before {
		m.coordinator.OnInput(after)
	}
	return m, cmd
}

// handleSettingsKey processes keys while editing extra arguments
func (m *Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.exitSettingsMode()
		return m, nil

	case "enter":
		args := m.argsInput.Value()
		m.config.ExtraArgs = args
		m.bus.Publish(eventbus.ConfigChangedEvent{
			RipgrepPath: m.config.RipgrepPath,
			ExtraArgs:   args,
		})
		m.exitSettingsMode()
		// Re-run the current query with the new arguments
		m.coordinator.OnInput(m.queryInput.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.argsInput, cmd = m.argsInput.Update(msg)
	return m, cmd
}

func (m *Model) exitSettingsMode() {
	m.mode = modeSearch
	m.argsInput.Blur()
	m.queryInput.Focus()
}

// selectedMatch returns the match under the cursor
func (m *Model) selectedMatch() (domain.Match, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.results.Matches) {
		return domain.Match{}, false
	}
	return m.results.Matches[m.selectedIndex], true
}

// matchFilePath resolves a reported match path to something openable
func (m *Model) matchFilePath(match domain.Match) string {
	if filepath.IsAbs(match.Path) {
		return match.Path
	}
	return filepath.Join(m.root, match.DisplayPath(m.root))
}

// moveSelection moves the cursor by delta and keeps it inside the viewport
func (m *Model) moveSelection(delta int) {
	if len(m.results.Matches) == 0 {
		return
	}

	m.selectedIndex += delta
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
	if m.selectedIndex >= len(m.results.Matches) {
		m.selectedIndex = len(m.results.Matches) - 1
	}

	// Scroll the viewport to follow the cursor
	if m.selectedIndex < m.viewportOffset {
		m.viewportOffset = m.selectedIndex
	}
	if m.selectedIndex >= m.viewportOffset+m.viewportHeight {
		m.viewportOffset = m.selectedIndex - m.viewportHeight + 1
	}
}

// updateViewportHeight derives the result list height from the window size
func (m *Model) updateViewportHeight() {
	// title + query + blank + scroll line + footer
	reserved := 6
	if m.mode == modeSettings {
		reserved++
	}
	m.viewportHeight = m.height - reserved
	if m.viewportHeight < 1 {
		m.viewportHeight = 1
	}
}

// View renders the UI
func (m *Model) View() string {
	return m.renderer.Render(views.ViewState{
		Width:           m.width,
		Height:          m.height,
		Root:            m.root,
		QueryView:       m.queryInput.View(),
		SettingsView:    m.argsInput.View(),
		InSettingsMode:  m.mode == modeSettings,
		Results:         m.results,
		SelectedIndex:   m.selectedIndex,
		ViewportOffset:  m.viewportOffset,
		ViewportHeight:  m.viewportHeight,
		Searching:       m.searching,
		Searched:        m.searched,
		StatusMessage:   m.statusMessage,
		ShowLineNumbers: m.config.UISettings.ShowLineNumbers,
	})
}
