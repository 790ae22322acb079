package usecases

import (
	"context"
	"time"
)

// HostnameReserver allocates and releases item hostnames.
type HostnameReserver interface {
	Reserve(ctx context.Context, subscriptionItemID uint) (string, error)
	Release(ctx context.Context, subscriptionItemID uint) error
}

// ReminderStore remembers which renewal reminders were already delivered.
type ReminderStore interface {
	WasSent(ctx context.Context, subscriptionID uint, periodEnd time.Time) (bool, error)
	MarkSent(ctx context.Context, subscriptionID uint, periodEnd time.Time) error
}

// MarkdownRenderer renders trusted templates to sanitized HTML.
type MarkdownRenderer interface {
	ToHTMLSanitized(markdown string) (string, error)
}
