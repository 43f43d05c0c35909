package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"greptide/internal/domain"
)

// NoResultsText is the single placeholder row shown for an empty or failed
// search.
const NoResultsText = "no results found"

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width           int
	Height          int
	Root            string
	QueryView       string // rendered text input
	SettingsView    string // rendered settings input, shown in settings mode
	InSettingsMode  bool
	Results         domain.ResultSet
	SelectedIndex   int
	ViewportOffset  int
	ViewportHeight  int
	Searching       bool
	Searched        bool // at least one search completed or failed
	StatusMessage   string
	ShowLineNumbers bool
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view. Each call builds a whole frame, so the
// result list is always replaced atomically.
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	// Title line with right-aligned activity indicator
	logo := r.styles.Title.Render("greptide")
	titleLine := logo + " " + r.styles.Dim.Render(state.Root)
	if state.Searching {
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frame := int(time.Now().UnixMilli()/80) % len(spinner)
		indicator := r.styles.Dim.Render(fmt.Sprintf("%s Searching", spinner[frame]))
		pad := state.Width - lipgloss.Width(titleLine) - lipgloss.Width(indicator)
		if pad > 0 {
			titleLine += strings.Repeat(" ", pad)
		} else {
			titleLine += " "
		}
		titleLine += indicator
	}
	content.WriteString(titleLine)
	content.WriteString("\n")

	// Query prompt
	content.WriteString(r.styles.Prompt.Render("> "))
	content.WriteString(state.QueryView)
	content.WriteString("\n")

	if state.InSettingsMode {
		content.WriteString(r.styles.Status.Render("extra args: "))
		content.WriteString(state.SettingsView)
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(r.renderResults(state))

	// Footer
	content.WriteString("\n")
	if state.StatusMessage != "" {
		content.WriteString(r.styles.ErrorText.Render(state.StatusMessage))
		content.WriteString("\n")
	}
	content.WriteString(r.renderFooter(state))

	return content.String()
}

// renderResults renders the visible window of the result list
func (r *Renderer) renderResults(state ViewState) string {
	if state.Results.Empty() {
		if state.Searched {
			return r.styles.Placeholder.Render(NoResultsText) + "\n"
		}
		return r.styles.Placeholder.Render("start typing to search") + "\n"
	}

	content := &strings.Builder{}
	matches := state.Results.Matches

	end := state.ViewportOffset + state.ViewportHeight
	if end > len(matches) {
		end = len(matches)
	}
	start := state.ViewportOffset
	if start > end {
		start = end
	}

	for i := start; i < end; i++ {
		line := r.RenderMatch(matches[i], state.Root, state.ShowLineNumbers)
		if i == state.SelectedIndex {
			line = r.styles.SelectionBg.Render(line)
		}
		content.WriteString(line)
		content.WriteString("\n")
	}

	if len(matches) > state.ViewportHeight {
		content.WriteString(r.styles.Scroll.Render(
			fmt.Sprintf("%d-%d of %d matches", start+1, end, len(matches))))
		content.WriteString("\n")
	}

	return content.String()
}

// RenderMatch renders one match row: display path, line number, and the
// matched line with every submatch span highlighted.
func (r *Renderer) RenderMatch(m domain.Match, root string, showLineNumbers bool) string {
	content := &strings.Builder{}
	content.WriteString(r.styles.Path.Render(m.DisplayPath(root)))
	if showLineNumbers {
		content.WriteString(r.styles.LineNumber.Render(fmt.Sprintf(":%d", m.LineNumber)))
	}
	content.WriteString("  ")
	content.WriteString(r.HighlightLine(m.Line, m.Submatches))
	return content.String()
}

// HighlightLine wraps each submatch span of line in the highlight style.
// Offsets are byte offsets; ranges outside the line or overlapping a prior
// span are clamped rather than trusted.
func (r *Renderer) HighlightLine(line string, submatches []domain.Submatch) string {
	if len(submatches) == 0 {
		return line
	}

	content := &strings.Builder{}
	last := 0
	for _, sm := range submatches {
		start, end := sm.Start, sm.End
		if start < last {
			start = last
		}
		if end > len(line) {
			end = len(line)
		}
		if start >= end {
			continue
		}
		content.WriteString(line[last:start])
		content.WriteString(r.styles.Highlight.Render(line[start:end]))
		last = end
	}
	if last < len(line) {
		content.WriteString(line[last:])
	}
	return content.String()
}

// renderFooter renders the key hint line
func (r *Renderer) renderFooter(state ViewState) string {
	if state.InSettingsMode {
		return r.styles.Help.Render("enter apply • esc cancel")
	}
	return r.styles.Help.Render("enter open • ctrl+o preview • ctrl+e args • esc clear/quit • ctrl+c quit")
}
