package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchStarted   EventType = "SearchStarted"
	EventSearchCompleted EventType = "SearchCompleted"
	EventSearchFailed    EventType = "SearchFailed"
	EventFilesChanged    EventType = "FilesChanged"
	EventError           EventType = "Error"
	EventConfigLoaded    EventType = "ConfigLoaded"
	EventConfigSaved     EventType = "ConfigSaved"
	EventConfigChanged   EventType = "ConfigChanged"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchStartedEvent is emitted when a debounced query begins running.
// Gen is a monotonic run counter; consumers use it to discard events
// belonging to a run that a newer one has superseded.
type SearchStartedEvent struct {
	Gen   uint64
	Query SearchQuery
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// SearchCompletedEvent is emitted when a run finishes and is still current.
// Superseded or cancelled runs never produce this event.
type SearchCompletedEvent struct {
	Gen     uint64
	Query   SearchQuery
	Results ResultSet
	Cached  bool
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// SearchFailedEvent is emitted when a current run fails for a reason other
// than cancellation. The UI renders it as an empty result.
type SearchFailedEvent struct {
	Gen   uint64
	Query SearchQuery
	Err   error
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// FilesChangedEvent is emitted when the watched tree changes on disk
type FilesChangedEvent struct {
	Paths []string
}

func (e FilesChangedEvent) Type() EventType { return EventFilesChanged }

// ErrorEvent is emitted when a non-search error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	RipgrepPath string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct{}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ConfigChangedEvent is emitted when configuration needs to be saved
type ConfigChangedEvent struct {
	RipgrepPath string
	ExtraArgs   string
}

func (e ConfigChangedEvent) Type() EventType { return EventConfigChanged }
