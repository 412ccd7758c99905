package world

// Metrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type Metrics struct {
	Tick         uint64 `json:"tick"`
	Players      int    `json:"players"`
	Sessions     int    `json:"sessions"`
	ItemEntities int    `json:"item_entities"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	DroppedMessages uint64 `json:"dropped_messages"`
	Saves           uint64 `json:"saves"`
	SaveErrors      uint64 `json:"save_errors"`
}

type QueueDepths struct {
	Inbox    int `json:"inbox"`
	Join     int `json:"join"`
	Leave    int `json:"leave"`
	Commands int `json:"commands"`
}

func (w *World) Metrics() Metrics {
	if w == nil {
		return Metrics{}
	}
	m, ok := w.metrics.Load().(Metrics)
	if !ok {
		return Metrics{}
	}
	return m
}
