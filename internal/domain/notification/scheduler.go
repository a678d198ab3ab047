// internal/domain/notification/scheduler.go
package notification

import (
	"context"
	"errors"
)

// ErrDelivery wraps every failure a Scheduler reports for a single request.
var ErrDelivery = errors.New("notification delivery failed")

// Scheduler accepts reminders for delivery at their fire time.
type Scheduler interface {
	// Schedule hands off a request. Requests whose FireAt has passed are delivered immediately.
	Schedule(ctx context.Context, req Request) error
	// CancelAll drops every request that has not been delivered yet.
	CancelAll(ctx context.Context) error
}
