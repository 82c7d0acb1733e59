package suite

import (
	"context"

	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/types"
)

// Discoverer returns the registrations nested inside the describe body bound
// to a function table index
type Discoverer interface {
	Discover(ctx context.Context, funcIndex uint32) ([]Registration, error)
}

// CloneDiscoverer recovers nested registrations by running the describe
// body on a fresh instance and diffing the resulting registration list
// against that instance's own top-level registrations. The fresh instance
// is discarded afterwards, so describe bodies must only register.
type CloneDiscoverer struct {
	Module  Module
	Metrics *Metrics
	Logger  *zap.Logger
}

// Discover implements Discoverer
func (d CloneDiscoverer) Discover(ctx context.Context, funcIndex uint32) ([]Registration, error) {
	inst, err := d.Module.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := inst.Close(ctx); err != nil && d.Logger != nil {
			d.Logger.Warn("failed to close discovery instance",
				zap.Uint32("func_index", funcIndex), zap.Error(err))
		}
	}()

	baseline := inst.Registrations()

	fn, err := inst.Callable(ctx, funcIndex)
	if err != nil {
		return nil, err
	}
	if err := fn.Call(ctx); err != nil {
		return nil, types.Fatalf("Failed to execute describe block with index '%d': %w", funcIndex, err)
	}
	d.Metrics.RecordDiscovery()

	return Diff(inst.Registrations(), baseline), nil
}
