package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

const defaultNoticeDuration = 4 * time.Second

// NoticeCenter keeps transient notices, fans them out to subscribers and
// optionally forwards them to the desktop
type NoticeCenter struct {
	config *domain.NotificationConfig
	logger *zap.Logger

	mu          sync.Mutex
	notices     []domain.Notice
	subscribers map[int]func(domain.Notice)
	nextSub     int

	now  func() time.Time
	exec func(name string, args ...string) error
}

// NewNoticeCenter creates a new notice center
func NewNoticeCenter(config *domain.NotificationConfig, logger *zap.Logger) *NoticeCenter {
	return &NoticeCenter{
		config:      config,
		logger:      logger,
		subscribers: make(map[int]func(domain.Notice)),
		now:         time.Now,
		exec: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Notify records a notice and delivers it. It never blocks on the desktop
// notifier.
func (n *NoticeCenter) Notify(kind domain.NoticeKind, message string) domain.Notice {
	duration := n.config.Duration
	if duration <= 0 {
		duration = defaultNoticeDuration
	}

	now := n.now()
	notice := domain.Notice{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}

	n.mu.Lock()
	n.notices = append(n.pruneLocked(now), notice)
	subscribers := make([]func(domain.Notice), 0, len(n.subscribers))
	for _, fn := range n.subscribers {
		subscribers = append(subscribers, fn)
	}
	n.mu.Unlock()

	if kind == domain.NoticeError {
		n.logger.Warn("notice", zap.String("message", message))
	} else {
		n.logger.Info("notice", zap.String("message", message))
	}

	for _, fn := range subscribers {
		fn(notice)
	}

	if n.config.Enabled {
		go n.Send(noticeTitle(kind), message)
	}

	return notice
}

// Active returns the notices that have not expired yet, oldest first
func (n *NoticeCenter) Active() []domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.notices = n.pruneLocked(n.now())
	out := make([]domain.Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// Subscribe registers fn for every new notice and returns a function removing it
func (n *NoticeCenter) Subscribe(fn func(domain.Notice)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextSub++
	id := n.nextSub
	n.subscribers[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subscribers, id)
	}
}

func (n *NoticeCenter) pruneLocked(now time.Time) []domain.Notice {
	kept := n.notices[:0]
	for _, notice := range n.notices {
		if !notice.Expired(now) {
			kept = append(kept, notice)
		}
	}
	return kept
}

// Send sends a desktop notification
func (n *NoticeCenter) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	case "none", "":
		return nil
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NoticeCenter) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
	if err := n.exec("osascript", "-e", script); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}
	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NoticeCenter) sendNotifySend(title, message string) error {
	timeout := n.config.Duration
	if timeout <= 0 {
		timeout = defaultNoticeDuration
	}
	if err := n.exec("notify-send", "-t", fmt.Sprint(timeout.Milliseconds()), title, message); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}
	return nil
}

func noticeTitle(kind domain.NoticeKind) string {
	if kind == domain.NoticeError {
		return "Editions: Error"
	}
	return "Editions"
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(truncateString(s, 200))
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
