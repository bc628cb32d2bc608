package infrastructure

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// AnalyticsLogger is an AnalyticsSink writing events to a logger from a
// background worker. Events are dropped when the buffer is full.
type AnalyticsLogger struct {
	logger  *zap.Logger
	events  chan domain.AnalyticsEvent
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// NewAnalyticsLogger creates and starts an analytics sink
func NewAnalyticsLogger(logger *zap.Logger, buffer int) *AnalyticsLogger {
	if buffer < 1 {
		buffer = 256
	}
	a := &AnalyticsLogger{
		logger: logger,
		events: make(chan domain.AnalyticsEvent, buffer),
	}
	a.wg.Add(1)
	go a.worker()
	return a
}

// Record queues an event without blocking
func (a *AnalyticsLogger) Record(event domain.AnalyticsEvent) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}

	select {
	case a.events <- event:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of events dropped because the buffer was full
func (a *AnalyticsLogger) Dropped() int64 {
	return a.dropped.Load()
}

// Close flushes queued events and stops the worker
func (a *AnalyticsLogger) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.events)
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *AnalyticsLogger) worker() {
	defer a.wg.Done()
	for event := range a.events {
		a.write(event)
	}
}

func (a *AnalyticsLogger) write(event domain.AnalyticsEvent) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analytics event write panicked", zap.Any("error", r))
		}
	}()

	keys := make([]string, 0, len(event.Parameters))
	for key := range event.Parameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, zap.String(key, event.Parameters[key]))
	}
	a.logger.Debug(event.Name, fields...)
}

func recordEvent(sink domain.AnalyticsSink, name string, id domain.EditionID, extra ...string) {
	if sink == nil {
		return
	}
	params := map[string]string{"edition_id": string(id)}
	for i := 0; i+1 < len(extra); i += 2 {
		params[extra[i]] = extra[i+1]
	}
	sink.Record(domain.AnalyticsEvent{Name: name, Parameters: params})
}
