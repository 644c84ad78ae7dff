package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event emitted during a run.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// RunID is the associated run ID, if applicable.
	RunID string `json:"run_id,omitempty"`

	// Tag is the command tag the event refers to, if any.
	Tag string `json:"tag,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants.
const (
	EventTypeRunStarted       = "run.started"
	EventTypeRunCompleted     = "run.completed"
	EventTypeRunFailed        = "run.failed"
	EventTypeCommandCompleted = "command.completed"
	EventTypeCommandFailed    = "command.failed"
	EventTypeIncludeSkipped   = "include.skipped"
)

// Terminal run statuses carried in the "status" field of run events.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusAborted   = "aborted"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher fans events out to subscribers. Delivery is synchronous so
// that every event is handled before the process exits; subscribers may be
// called from several goroutines at once when parallel branches publish.
type EventPublisher struct {
	config      EventsConfig
	subscribers []subscriberEntry
	mu          sync.RWMutex
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) *EventPublisher {
	return &EventPublisher{config: cfg}
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) {
	if ep == nil || !ep.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// PublishRunStarted publishes a run started event.
func (ep *EventPublisher) PublishRunStarted(runID, configPath, action string) {
	ep.Publish(Event{
		Type:    EventTypeRunStarted,
		RunID:   runID,
		Message: fmt.Sprintf("%s of %s started", action, configPath),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"config_path": configPath,
			"action":      action,
		},
	})
}

// PublishRunFinished publishes the terminal event of a run.
func (ep *EventPublisher) PublishRunFinished(runID string, ok bool, err error, duration time.Duration) {
	event := Event{
		Type:    EventTypeRunCompleted,
		RunID:   runID,
		Message: "run completed",
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"duration": duration.Seconds(),
			"status":   RunStatusSucceeded,
		},
	}
	switch {
	case err != nil:
		event.Type = EventTypeRunFailed
		event.Level = EventLevelError
		event.Message = fmt.Sprintf("run aborted: %v", err)
		event.Data["status"] = RunStatusAborted
		event.Data["error"] = err.Error()
	case !ok:
		event.Type = EventTypeRunFailed
		event.Level = EventLevelError
		event.Message = "run halted by a failed command"
		event.Data["status"] = RunStatusFailed
	}
	ep.Publish(event)
}

// PublishCommand publishes the outcome of one command node.
func (ep *EventPublisher) PublishCommand(runID, tag string, ok bool, err error, duration time.Duration) {
	event := Event{
		Type:    EventTypeCommandCompleted,
		RunID:   runID,
		Tag:     tag,
		Message: fmt.Sprintf("%s succeeded", tag),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"duration": duration.Seconds(),
		},
	}
	switch {
	case err != nil:
		event.Type = EventTypeCommandFailed
		event.Level = EventLevelError
		event.Message = fmt.Sprintf("%s failed: %v", tag, err)
	case !ok:
		event.Type = EventTypeCommandFailed
		event.Level = EventLevelWarning
		event.Message = fmt.Sprintf("%s reported failure", tag)
	}
	ep.Publish(event)
}

// PublishIncludeSkipped publishes that an already rendered file was skipped.
func (ep *EventPublisher) PublishIncludeSkipped(runID, path string) {
	ep.Publish(Event{
		Type:    EventTypeIncludeSkipped,
		RunID:   runID,
		Tag:     "include",
		Message: fmt.Sprintf("%s already rendered", path),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"path": path,
		},
	})
}

// Subscribe adds a new event subscriber.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}
