package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yourusername/editions-go/internal/domain"
)

// manualDispatcher queues tasks until the test flushes them
type manualDispatcher struct {
	mu    sync.Mutex
	tasks []func()
}

func (d *manualDispatcher) Post(task func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *manualDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

func (d *manualDispatcher) Flush() {
	for {
		d.mu.Lock()
		tasks := d.tasks
		d.tasks = nil
		d.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, task := range tasks {
			task()
		}
	}
}

// fakeHandle records cancellation
type fakeHandle struct {
	id        int
	cancelled bool
}

func (h *fakeHandle) ID() string { return fmt.Sprintf("attempt-%d", h.id) }
func (h *fakeHandle) Cancel()    { h.cancelled = true }

// fakeDownloadService hands out handles and keeps the listener of each start
type fakeDownloadService struct {
	handles   []*fakeHandle
	listeners []domain.ProgressListener
	editions  []domain.EditionID
	startErr  error
}

func (s *fakeDownloadService) Start(ctx context.Context, id domain.EditionID, listener domain.ProgressListener) (domain.DownloadHandle, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	h := &fakeHandle{id: len(s.handles) + 1}
	s.handles = append(s.handles, h)
	s.listeners = append(s.listeners, listener)
	s.editions = append(s.editions, id)
	return h, nil
}

func (s *fakeDownloadService) lastListener() domain.ProgressListener {
	return s.listeners[len(s.listeners)-1]
}

// fakeDownloaded is an in-memory downloaded set
type fakeDownloaded struct {
	mu        sync.Mutex
	set       map[domain.EditionID]bool
	deleted   []domain.EditionID
	deleteErr error
}

func newFakeDownloaded(ids ...domain.EditionID) *fakeDownloaded {
	d := &fakeDownloaded{set: make(map[domain.EditionID]bool)}
	for _, id := range ids {
		d.set[id] = true
	}
	return d
}

func (d *fakeDownloaded) IsDownloaded(id domain.EditionID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.set[id]
}

func (d *fakeDownloaded) Downloaded() ([]domain.DownloadedEdition, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.DownloadedEdition
	for id := range d.set {
		out = append(out, domain.DownloadedEdition{EditionID: id})
	}
	return out, nil
}

func (d *fakeDownloaded) Delete(ctx context.Context, id domain.EditionID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deleteErr != nil {
		return d.deleteErr
	}
	delete(d.set, id)
	d.deleted = append(d.deleted, id)
	return nil
}

func (d *fakeDownloaded) mark(id domain.EditionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.set[id] = true
}

// recordingObserver records coordinator notifications
type recordingObserver struct {
	changed []domain.EditionID
	drained []domain.EditionID
	failed  map[domain.EditionID]error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{failed: make(map[domain.EditionID]error)}
}

func (o *recordingObserver) EditionChanged(id domain.EditionID) { o.changed = append(o.changed, id) }
func (o *recordingObserver) DownloadDrained(id domain.EditionID) { o.drained = append(o.drained, id) }
func (o *recordingObserver) DownloadFailed(id domain.EditionID, err error) {
	o.failed[id] = err
}

// fakePresenter returns a configured error per edition
type fakePresenter struct {
	mu     sync.Mutex
	errs   map[domain.EditionID]error
	opened []domain.EditionID
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{errs: make(map[domain.EditionID]error)}
}

func (p *fakePresenter) Open(ctx context.Context, id domain.EditionID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[id]; ok {
		return err
	}
	p.opened = append(p.opened, id)
	return nil
}

func (p *fakePresenter) openedEditions() []domain.EditionID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.EditionID(nil), p.opened...)
}

// recordingNotifier collects notices
type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *recordingNotifier) Notify(kind domain.NoticeKind, message string) domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	notice := domain.Notice{Kind: kind, Message: message}
	n.notices = append(n.notices, notice)
	return notice
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notices))
	for _, notice := range n.notices {
		out = append(out, notice.Message)
	}
	return out
}

// fakeCatalog serves a fixed edition list
type fakeCatalog struct {
	editions   []domain.Edition
	refreshErr error
	feedErr    error
	refreshes  int
}

func (c *fakeCatalog) UpdateFeed(ctx context.Context) error { return c.feedErr }

func (c *fakeCatalog) Refresh(ctx context.Context) ([]domain.Edition, error) {
	c.refreshes++
	if c.refreshErr != nil {
		return nil, c.refreshErr
	}
	return c.editions, nil
}

func (c *fakeCatalog) Editions(query domain.EditionQuery) domain.EditionPaginator {
	return nil
}

// fakeDiskUsage returns fixed sizes, optionally gated by a channel
type fakeDiskUsage struct {
	sizes map[domain.EditionID]int64
	gate  chan struct{}
}

func (d *fakeDiskUsage) DiskUsage(ctx context.Context, id domain.EditionID) (int64, error) {
	if d.gate != nil {
		<-d.gate
	}
	size, ok := d.sizes[id]
	if !ok {
		return 0, errors.New("no usage")
	}
	return size, nil
}

// fakeCovers returns a cover path derived from the edition id
type fakeCovers struct {
	mu    sync.Mutex
	boxes []domain.Size
}

func (c *fakeCovers) Cover(ctx context.Context, edition domain.Edition, box domain.Size) (*domain.Cover, error) {
	c.mu.Lock()
	c.boxes = append(c.boxes, box)
	c.mu.Unlock()
	return &domain.Cover{Path: "/covers/" + string(edition.ID) + ".jpg", Width: box.Width, Height: box.Height}, nil
}
