package highlight

import "log"

// Level grades a user-facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a transient, non-fatal message for the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier surfaces notifications, typically as a toast.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(n Notification) {
	if n.Level == LevelError {
		log.Printf("[notify] error: %s", n.Message)
		return
	}
	log.Printf("[notify] %s", n.Message)
}
