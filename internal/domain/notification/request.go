// internal/domain/notification/request.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Request is a single reminder handed to a Scheduler.
type Request struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID // Lookup key into the subscription repository
	FireAt         time.Time // When the reminder should reach the user
	Title          string
	Body           string
}
