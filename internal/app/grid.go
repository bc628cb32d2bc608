package app

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	stateDownloaded    = "Downloaded"
	stateNotDownloaded = "Not downloaded"
)

// CellState is the rendered content of one grid cell
type CellState struct {
	Index       int              `json:"index"`
	EditionID   domain.EditionID `json:"edition_id"`
	Title       string           `json:"title"`
	State       string           `json:"state"`
	Downloaded  bool             `json:"downloaded"`
	Downloading bool             `json:"downloading"`
	Progress    *domain.Progress `json:"progress,omitempty"`
	Processing  bool             `json:"processing"`
	SizeBytes   int64            `json:"size_bytes,omitempty"`
	SizeText    string           `json:"size_text,omitempty"`
	CoverPath   string           `json:"cover_path,omitempty"`
	Binding     uint64           `json:"binding"`
}

// GridEventType tells observers what changed
type GridEventType string

const (
	GridEventReset GridEventType = "reset"
	GridEventCell  GridEventType = "cell"
)

// GridEvent is delivered to grid observers on the event loop
type GridEvent struct {
	Type  GridEventType `json:"type"`
	Cell  *CellState    `json:"cell,omitempty"`
	Cells []CellState   `json:"cells,omitempty"`
}

type cell struct {
	edition        domain.Edition
	binding        uint64
	sizeBytes      int64
	usageRequested bool
	coverPath      string
	state          CellState
}

// Grid binds catalog editions and coordinator state to cells. Async disk
// usage and cover results carry the binding they were requested for and
// are dropped if the cell has been rebound since.
type Grid struct {
	coordinator      *DownloadCoordinator
	downloaded       domain.DownloadedEditions
	diskUsage        domain.DiskUsageProvider
	covers           domain.CoverProvider
	dispatcher       Dispatcher
	layout           Layout
	coverConcurrency int
	logger           *zap.Logger

	ctx         context.Context
	order       []domain.EditionID
	cells       map[domain.EditionID]*cell
	bindingSeq  uint64
	observers   map[int]func(GridEvent)
	observerSeq int
}

// GridOptions configures a Grid
type GridOptions struct {
	Coordinator      *DownloadCoordinator
	Downloaded       domain.DownloadedEditions
	DiskUsage        domain.DiskUsageProvider
	Covers           domain.CoverProvider
	Dispatcher       Dispatcher
	Layout           Layout
	CoverConcurrency int
	Logger           *zap.Logger
}

// NewGrid creates an empty grid. ctx bounds the async loads it starts.
func NewGrid(ctx context.Context, opts GridOptions) *Grid {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.CoverConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Grid{
		coordinator:      opts.Coordinator,
		downloaded:       opts.Downloaded,
		diskUsage:        opts.DiskUsage,
		covers:           opts.Covers,
		dispatcher:       opts.Dispatcher,
		layout:           opts.Layout,
		coverConcurrency: concurrency,
		logger:           logger,
		ctx:              ctx,
		cells:            make(map[domain.EditionID]*cell),
		observers:        make(map[int]func(GridEvent)),
	}
}

// Subscribe registers an observer and returns a function removing it
func (g *Grid) Subscribe(fn func(GridEvent)) func() {
	g.observerSeq++
	id := g.observerSeq
	g.observers[id] = fn
	return func() { delete(g.observers, id) }
}

// Reload rebinds every cell to the given editions
func (g *Grid) Reload(editions []domain.Edition) {
	g.order = make([]domain.EditionID, 0, len(editions))
	cells := make(map[domain.EditionID]*cell, len(editions))

	for _, edition := range editions {
		if _, dup := cells[edition.ID]; dup {
			continue
		}
		g.bindingSeq++
		c := &cell{edition: edition, binding: g.bindingSeq}
		if old, ok := g.cells[edition.ID]; ok {
			c.coverPath = old.coverPath
		}
		cells[edition.ID] = c
		g.order = append(g.order, edition.ID)
	}
	g.cells = cells

	for i, id := range g.order {
		g.populate(i, g.cells[id])
	}

	g.emit(GridEvent{Type: GridEventReset, Cells: g.Cells()})
	g.loadCovers()
}

// Update re-renders the cell of an edition, if it is bound
func (g *Grid) Update(id domain.EditionID) {
	c, ok := g.cells[id]
	if !ok {
		return
	}
	g.populate(g.indexOf(id), c)
	state := c.state
	g.emit(GridEvent{Type: GridEventCell, Cell: &state})
}

// Cells returns the rendered cells in grid order
func (g *Grid) Cells() []CellState {
	out := make([]CellState, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.cells[id].state)
	}
	return out
}

// Cell returns the rendered cell of an edition
func (g *Grid) Cell(id domain.EditionID) (CellState, bool) {
	c, ok := g.cells[id]
	if !ok {
		return CellState{}, false
	}
	return c.state, true
}

// Edition returns the edition bound to a cell
func (g *Grid) Edition(id domain.EditionID) (domain.Edition, bool) {
	c, ok := g.cells[id]
	if !ok {
		return domain.Edition{}, false
	}
	return c.edition, true
}

func (g *Grid) populate(index int, c *cell) {
	id := c.edition.ID
	state := CellState{
		Index:     index,
		EditionID: id,
		Title:     c.edition.Title,
		Binding:   c.binding,
		CoverPath: c.coverPath,
	}

	if download, ok := g.coordinator.StateOf(id); ok {
		progress := download.Progress
		state.Downloading = true
		state.Progress = &progress
		state.Processing = download.Preparing || progress.Indeterminate
	}

	if g.downloaded.IsDownloaded(id) {
		state.Downloaded = true
		state.State = stateDownloaded
		if c.usageRequested && c.sizeBytes > 0 {
			state.State = fmt.Sprintf("%s %dMB", stateDownloaded, c.sizeBytes/1024/1024)
			state.SizeBytes = c.sizeBytes
			state.SizeText = humanize.IBytes(uint64(c.sizeBytes))
		}
		if !c.usageRequested {
			c.usageRequested = true
			g.requestDiskUsage(id, c.binding)
		}
	} else {
		state.State = stateNotDownloaded
		c.usageRequested = false
		c.sizeBytes = 0
	}

	c.state = state
}

func (g *Grid) requestDiskUsage(id domain.EditionID, binding uint64) {
	if g.diskUsage == nil {
		return
	}
	go func() {
		bytes, err := g.diskUsage.DiskUsage(g.ctx, id)
		g.post(func() { g.applyDiskUsage(id, binding, bytes, err) })
	}()
}

func (g *Grid) applyDiskUsage(id domain.EditionID, binding uint64, bytes int64, err error) {
	c, ok := g.cells[id]
	if !ok || c.binding != binding {
		g.logger.Debug("discarding disk usage for rebound cell", zap.String("edition_id", string(id)))
		return
	}
	if err != nil {
		g.logger.Warn("disk usage query failed", zap.String("edition_id", string(id)), zap.Error(err))
		return
	}
	if !g.downloaded.IsDownloaded(id) {
		return
	}
	c.sizeBytes = bytes
	g.Update(id)
}

// loadCovers fetches covers for every bound cell with bounded concurrency
func (g *Grid) loadCovers() {
	if g.covers == nil {
		return
	}

	type request struct {
		edition domain.Edition
		binding uint64
	}
	requests := make([]request, 0, len(g.order))
	for _, id := range g.order {
		c := g.cells[id]
		if c.edition.CoverURL == "" {
			continue
		}
		requests = append(requests, request{edition: c.edition, binding: c.binding})
	}
	if len(requests) == 0 {
		return
	}

	box := g.layout.CoverBoundingBox()
	go func() {
		eg, ctx := errgroup.WithContext(g.ctx)
		eg.SetLimit(g.coverConcurrency)
		for _, req := range requests {
			req := req
			eg.Go(func() error {
				cover, err := g.covers.Cover(ctx, req.edition, box)
				if err != nil {
					g.logger.Warn("cover load failed",
						zap.String("edition_id", string(req.edition.ID)),
						zap.Error(err))
					return nil
				}
				g.post(func() { g.applyCover(req.edition.ID, req.binding, cover) })
				return nil
			})
		}
		eg.Wait()
	}()
}

func (g *Grid) applyCover(id domain.EditionID, binding uint64, cover *domain.Cover) {
	c, ok := g.cells[id]
	if !ok || c.binding != binding {
		g.logger.Debug("discarding cover for rebound cell", zap.String("edition_id", string(id)))
		return
	}
	c.coverPath = cover.Path
	g.Update(id)
}

func (g *Grid) indexOf(id domain.EditionID) int {
	for i, other := range g.order {
		if other == id {
			return i
		}
	}
	return -1
}

func (g *Grid) emit(event GridEvent) {
	for _, fn := range g.observers {
		fn(event)
	}
}

func (g *Grid) post(task func()) {
	if err := g.dispatcher.Post(task); err != nil {
		g.logger.Debug("grid result dropped", zap.Error(err))
	}
}
