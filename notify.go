package auth

import "context"

// NotificationLevel is the severity of a user facing message.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationInfo    NotificationLevel = "info"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notification is a toast style message shown to the user.
type Notification struct {
	Level   NotificationLevel
	Title   string
	Message string
	Err     error
}

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	if f != nil {
		f(ctx, n)
	}
}

// Navigator moves the application to another route.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, path string) error {
	if f == nil {
		return nil
	}
	return f(ctx, path)
}

// LocationFunc returns the route the user is currently on.
type LocationFunc func() string

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) {}

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, string) error { return nil }
