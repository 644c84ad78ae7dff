package stores

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/quicksetup/pkg/telemetry"
)

// Recorder writes telemetry events into a HistoryStore. Run events open and
// close the run row; every event is also appended to the event log.
// Write failures are logged and never reach the run itself.
type Recorder struct {
	store   HistoryStore
	logger  zerolog.Logger
	timeout time.Duration

	mu       sync.Mutex
	firstErr error
}

// NewRecorder creates a recorder for store.
func NewRecorder(store HistoryStore, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Attach subscribes the recorder to publisher.
func (r *Recorder) Attach(publisher *telemetry.EventPublisher) {
	publisher.Subscribe(r.Handle, nil)
}

// Handle records one event. It is safe for concurrent use.
func (r *Recorder) Handle(event telemetry.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	switch event.Type {
	case telemetry.EventTypeRunStarted:
		run := &Run{
			ID:         event.RunID,
			ConfigPath: stringField(event.Data, "config_path"),
			Action:     stringField(event.Data, "action"),
			Status:     RunStatusRunning,
			StartedAt:  event.Timestamp.UTC(),
		}
		if err := r.store.CreateRun(ctx, run); err != nil {
			r.fail(err, event)
			return
		}
	case telemetry.EventTypeRunCompleted, telemetry.EventTypeRunFailed:
		status := RunStatus(stringField(event.Data, "status"))
		if !status.IsTerminal() {
			status = RunStatusFailed
		}
		var errMsg *string
		if msg := stringField(event.Data, "error"); msg != "" {
			errMsg = &msg
		}
		if err := r.store.FinishRun(ctx, event.RunID, status, errMsg); err != nil {
			r.fail(err, event)
		}
	}

	if err := r.store.AppendEvent(ctx, toStoreEvent(event)); err != nil {
		r.fail(err, event)
	}
}

// Err returns the first write failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstErr
}

func (r *Recorder) fail(err error, event telemetry.Event) {
	r.logger.Warn().Err(err).Str("event_type", event.Type).Msg("Failed to record run history")

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.firstErr == nil {
		r.firstErr = err
	}
}

func toStoreEvent(event telemetry.Event) *Event {
	out := &Event{
		Type:      event.Type,
		Level:     event.Level,
		Message:   event.Message,
		Timestamp: event.Timestamp.UTC(),
	}
	if event.RunID != "" {
		runID := event.RunID
		out.RunID = &runID
	}
	if event.Tag != "" {
		tag := event.Tag
		out.Tag = &tag
	}
	if len(event.Data) > 0 {
		if data, err := json.Marshal(event.Data); err == nil {
			details := string(data)
			out.Details = &details
		}
	}
	return out
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
