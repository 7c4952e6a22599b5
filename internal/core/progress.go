package core

import (
	"encoding/json"
	"io"
	"sync"
)

// ProgressEventName is the event name observers subscribe to.
const ProgressEventName = "check-progress"

// ProgressEvent is emitted twice per check: before it runs with a nil
// CurrentCheck, and after it completes with its result.
type ProgressEvent struct {
	Current      int          `json:"current"`
	Total        int          `json:"total"`
	Message      string       `json:"message"`
	CurrentCheck *CheckResult `json:"current_check"`
}

// ProgressSink receives progress events. Delivery is best effort: a sink
// must never block the audit.
type ProgressSink interface {
	Emit(ProgressEvent)
}

// NopSink discards every event. It is the default for headless runs.
type NopSink struct{}

func (NopSink) Emit(ProgressEvent) {}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(ProgressEvent)

func (f FuncSink) Emit(ev ProgressEvent) {
	if f != nil {
		f(ev)
	}
}

// ChanSink delivers events to a channel and drops them when its buffer is
// full or nobody is listening.
type ChanSink chan<- ProgressEvent

func (c ChanSink) Emit(ev ProgressEvent) {
	select {
	case c <- ev:
	default:
	}
}

// MultiSink fans an event out to every sink in order.
type MultiSink []ProgressSink

func (m MultiSink) Emit(ev ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// JSONLinesSink writes one {"event": ..., "payload": ...} object per line,
// the shape a GUI shell listening for ProgressEventName expects.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLinesSink{enc: enc}
}

type progressEnvelope struct {
	Event   string        `json:"event"`
	Payload ProgressEvent `json:"payload"`
}

func (s *JSONLinesSink) Emit(ev ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// write errors are dropped; progress is advisory
	_ = s.enc.Encode(progressEnvelope{Event: ProgressEventName, Payload: ev})
}
