package ui

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

// Opener handles match activation: primary activation hands the file to the
// user's editor, modifier activation previews it in the embedded ov pager
// without leaving the application.
type Opener struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewOpener creates a new opener
func NewOpener() *Opener {
	return &Opener{}
}

// SetProgram sets the program reference for terminal management
func (o *Opener) SetProgram(p *tea.Program) {
	o.program = p
}

// OpenInEditor launches $EDITOR on the file at the given line. The TUI is
// suspended while the editor runs.
func (o *Opener) OpenInEditor(path string, line int) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, fmt.Sprintf("+%d", line), path)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// PreviewInPager shows the file in the ov pager and returns to the result
// list when the pager exits
func (o *Opener) PreviewInPager(path string) tea.Cmd {
	return func() tea.Msg {
		return pagerFinishedMsg{err: o.runPager(path)}
	}
}

// runPager releases the terminal, runs ov over the file, and restores the
// terminal afterwards
func (o *Opener) runPager(path string) error {
	if o.program == nil {
		return fmt.Errorf("program not set")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Release terminal control to run ov
	if err := o.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = o.program.RestoreTerminal() // Ignore error as we're in defer context
	}()

	root, err := oviewer.NewRoot(f)
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
