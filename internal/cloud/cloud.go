// Package cloud is the narrow boundary between ec2-connect and the cloud
// platform: an inventory lookup by name tag and a start-and-wait lifecycle
// call. Everything above this package works on internal/model types only, so
// it can be exercised against fakes without credentials or network access.
package cloud

import (
	"context"
	"errors"

	"github.com/treykane/ec2-connect/internal/model"
)

// ErrNotRunning marks a start whose running waiter failed or timed out. The
// waiter's own error is joined to it.
var ErrNotRunning = errors.New("instance did not reach running state")

// Inventory resolves instances by the value of their Name tag.
type Inventory interface {
	DescribeByName(ctx context.Context, name string) ([]model.Reservation, error)
}

// Controller drives instance lifecycle.
type Controller interface {
	// StartAndWait issues a start request and blocks until the platform
	// reports the instance as running.
	StartAndWait(ctx context.Context, id string) error
}

// Cloud is everything the connect pipeline needs from the platform.
type Cloud interface {
	Inventory
	Controller
}
