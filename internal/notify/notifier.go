package notify

import (
	"log"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one transient user-facing message. The storefront renders
// these as toasts; nothing blocks on them.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives user-facing outcome messages from validators and the
// merge procedure. Implementations must be safe for use from the request
// goroutine only; they are created per request.
type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

// Recorder collects notifications in order so a handler can return them in
// the response body.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string) { r.append(LevelSuccess, message) }
func (r *Recorder) Warning(message string) { r.append(LevelWarning, message) }
func (r *Recorder) Error(message string)   { r.append(LevelError, message) }

func (r *Recorder) append(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Level: level, Message: message})
}

// Notifications returns a copy of everything recorded so far, in emit order.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// LogNotifier writes notifications to the process log. Used by background
// callers (the checkout consumer) that have no user to notify.
type LogNotifier struct{}

func (LogNotifier) Success(message string) { log.Printf("notify success: %s", message) }
func (LogNotifier) Warning(message string) { log.Printf("notify warning: %s", message) }
func (LogNotifier) Error(message string)   { log.Printf("notify error: %s", message) }
