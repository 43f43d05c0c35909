package ui

import (
	"time"

	"greptide/internal/eventbus"
)

// EventMsg wraps a domain event for the Bubble Tea update loop
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg drives the searching spinner
type tickMsg time.Time

// editorFinishedMsg is sent when the external editor exits
type editorFinishedMsg struct {
	err error
}

// pagerFinishedMsg is sent when the embedded pager exits
type pagerFinishedMsg struct {
	err error
}
