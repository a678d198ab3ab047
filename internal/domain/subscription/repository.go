package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving Subscription entities.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]*Subscription, error)
	// FetchActive returns subscriptions that are not paused and have a reminder lead time other than NONE.
	FetchActive(ctx context.Context) ([]*Subscription, error)
}

// ErrNotFound is returned by repositories when no subscription has the requested ID.
var ErrNotFound = errors.New("subscription not found")
