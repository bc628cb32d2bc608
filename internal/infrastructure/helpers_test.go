package infrastructure

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// recordingSink collects analytics events
type recordingSink struct {
	mu     sync.Mutex
	events []domain.AnalyticsEvent
}

func (s *recordingSink) Record(event domain.AnalyticsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Name)
	}
	return out
}

// eventLog is shared by listeners to check ordering across downloads
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) index(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

// recordingListener records the callbacks of one download
type recordingListener struct {
	name string
	log  *eventLog

	mu        sync.Mutex
	progress  []float64
	preparing []bool
	completed chan struct{}
	failed    chan error
}

func newRecordingListener(name string, log *eventLog) *recordingListener {
	if log == nil {
		log = &eventLog{}
	}
	return &recordingListener{
		name:      name,
		log:       log,
		completed: make(chan struct{}, 1),
		failed:    make(chan error, 1),
	}
}

func (l *recordingListener) WillStart() { l.log.add(l.name + ":will_start") }

func (l *recordingListener) Progress(progress float64, preparing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = append(l.progress, progress)
	l.preparing = append(l.preparing, preparing)
}

func (l *recordingListener) Completed() {
	l.log.add(l.name + ":completed")
	l.completed <- struct{}{}
}

func (l *recordingListener) Failed(err error) {
	l.log.add(l.name + ":failed")
	l.failed <- err
}

func (l *recordingListener) waitCompleted(t *testing.T) {
	t.Helper()
	select {
	case <-l.completed:
	case err := <-l.failed:
		t.Fatalf("download %s failed: %v", l.name, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("download %s did not complete", l.name)
	}
}

func (l *recordingListener) snapshot() ([]float64, []bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]float64(nil), l.progress...), append([]bool(nil), l.preparing...)
}

func newDevTokenProvider(t *testing.T, entitlement string) *StaticTokenProvider {
	t.Helper()
	token, err := NewDevToken("test", []string{entitlement}, time.Hour, []byte("test-key"))
	require.NoError(t, err)
	return NewStaticTokenProvider(token, entitlement, zap.NewNop())
}

func seedCatalog(t *testing.T, repo *SQLiteRepository, ids ...string) {
	t.Helper()
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	editions := make([]domain.Edition, 0, len(ids))
	for i, id := range ids {
		editions = append(editions, domain.Edition{
			ID:          domain.EditionID(id),
			Title:       fmt.Sprintf("Edition %s", id),
			PublishedAt: base.AddDate(0, 0, i),
		})
	}
	require.NoError(t, repo.UpsertEditions(editions))
}
