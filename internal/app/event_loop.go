package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// Dispatcher posts work onto the serialized event stream
type Dispatcher interface {
	Post(task func()) error
}

// EventLoop is the single consumer of every SDK callback and user gesture.
// State owned by the coordinator, gate and grid is only touched from tasks
// running on this loop.
type EventLoop struct {
	logger   *zap.Logger
	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	running  bool
	stopChan chan struct{}
	exited   chan struct{}
	workerWg sync.WaitGroup
}

// NewEventLoop creates a new event loop
func NewEventLoop(logger *zap.Logger) *EventLoop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLoop{
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Start starts the loop goroutine. A stopped loop can be started again.
func (l *EventLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("event loop already running")
	}
	// the previous run may have ended through ctx without Stop
	l.workerWg.Wait()
	l.running = true
	l.stopChan = make(chan struct{})
	l.exited = make(chan struct{})
	stop, exited := l.stopChan, l.exited
	l.mu.Unlock()

	l.workerWg.Add(1)
	go l.run(ctx, stop, exited)

	return nil
}

// Stop stops the loop and waits for the current task to finish.
// Queued tasks that have not started are dropped.
func (l *EventLoop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return fmt.Errorf("event loop not running")
	}
	l.running = false
	l.queue = nil
	stop := l.stopChan
	l.mu.Unlock()

	close(stop)
	l.workerWg.Wait()

	return nil
}

// IsRunning returns whether the loop accepts tasks
func (l *EventLoop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Post enqueues a task. It never blocks; tasks run in posting order.
func (l *EventLoop) Post(task func()) error {
	_, err := l.enqueue(task)
	return err
}

// enqueue adds a task and returns the exit channel of the run it belongs to
func (l *EventLoop) enqueue(task func()) (<-chan struct{}, error) {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil, domain.ErrLoopStopped
	}
	l.queue = append(l.queue, task)
	exited := l.exited
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return exited, nil
}

// Call enqueues a task and waits for it to run. It must not be called from
// a task already running on the loop.
func (l *EventLoop) Call(ctx context.Context, task func()) error {
	done := make(chan struct{})
	exited, err := l.enqueue(func() {
		defer close(done)
		task()
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-exited:
		return domain.ErrLoopStopped
	}
}

func (l *EventLoop) run(ctx context.Context, stop, exited chan struct{}) {
	defer l.workerWg.Done()
	defer close(exited)

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.running = false
			l.queue = nil
			l.mu.Unlock()
			l.logger.Info("event loop stopped", zap.String("reason", "context_cancelled"))
			return
		case <-stop:
			l.logger.Info("event loop stopped", zap.String("reason", "stop_signal"))
			return
		case <-l.wake:
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()

			for _, task := range batch {
				select {
				case <-stop:
					return
				default:
				}
				l.execute(task)
			}
		}
	}
}

func (l *EventLoop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", zap.Any("error", r))
		}
	}()
	task()
}
