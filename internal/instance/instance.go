// Package instance implements the two cloud-facing steps of a connect run:
// resolving a Name tag to exactly one instance, and starting that instance.
package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/treykane/ec2-connect/internal/cloud"
	"github.com/treykane/ec2-connect/internal/model"
	"github.com/treykane/ec2-connect/internal/ui"
)

// Locate resolves name to a single instance and prints its summary.
//
// Zero matches yield *NotFoundError; more than one reservation, or more than
// one instance inside the only reservation, yields *AmbiguousNameError.
func Locate(ctx context.Context, inv cloud.Inventory, name string, out *ui.Reporter) (model.Instance, error) {
	reservations, err := inv.DescribeByName(ctx, name)
	if err != nil {
		return model.Instance{}, fmt.Errorf("describe instances: %w", err)
	}
	if len(reservations) == 0 {
		return model.Instance{}, &NotFoundError{Name: name}
	}
	if len(reservations) > 1 {
		return model.Instance{}, &AmbiguousNameError{Name: name, Matches: countInstances(reservations)}
	}
	records := reservations[0].Instances
	switch {
	case len(records) == 0:
		return model.Instance{}, &NotFoundError{Name: name}
	case len(records) > 1:
		return model.Instance{}, &AmbiguousNameError{Name: name, Matches: len(records)}
	}

	rec := records[0]
	inst := model.Instance{
		ID:    rec.ID,
		Name:  rec.Name(),
		IP:    rec.PublicIP,
		State: rec.State,
	}
	if out != nil {
		out.InstanceFound(inst)
	}
	if inst.Name != name {
		return model.Instance{}, &ConsistencyError{Requested: name, Found: inst.Name}
	}
	return inst, nil
}

// Start issues a start for id and blocks until the platform reports it as
// running. Starting a running instance is a no-op on the platform side.
func Start(ctx context.Context, ctl cloud.Controller, id string, out *ui.Reporter) error {
	if out != nil {
		out.Progress("Instance id=%s waiting until running ...", id)
	}
	if err := ctl.StartAndWait(ctx, id); err != nil {
		if errors.Is(err, cloud.ErrNotRunning) {
			return &WaiterError{ID: id, Err: err}
		}
		return fmt.Errorf("start instance %s: %w", id, err)
	}
	if out != nil {
		out.Done("Instance id=%s successfully started!", id)
	}
	return nil
}

func countInstances(reservations []model.Reservation) int {
	n := 0
	for _, r := range reservations {
		n += len(r.Instances)
	}
	return n
}
