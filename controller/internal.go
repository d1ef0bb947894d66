package controller

import (
	"context"
	"time"

	"github.com/bittoy/fieldrule/types"
)

// InternalController is the in-memory reference controller: it has no
// external protocol, so its outgoing half is a no-op and the only way a
// Source's value changes is via WRITE_SOURCE or an explicit call to
// Observe. Demo and test deployments use it as the controller for sources
// that model fixtures rather than live field devices.
type InternalController struct {
	*BaseController
}

// NewInternalController builds an InternalController named name.
func NewInternalController(name string, cfg types.Config, opts Options) *InternalController {
	return &InternalController{BaseController: NewBaseController(name, cfg, opts)}
}

// Observe feeds an externally-originated value into the named source, as if
// a protocol driver had just produced it. It is the seam tests and
// in-process producers use in place of a real field connection.
func (c *InternalController) Observe(ctx context.Context, key string, value any, statusOK bool, sourceTime time.Time) (bool, error) {
	s, ok := c.Source(key)
	if !ok {
		return false, types.NewConfigError(key, nil)
	}
	return c.UpdateSourceInstanceValue(ctx, s, value, sourceTime, statusOK, OriginExternal)
}

// Run services the incoming bus queue until ctx is canceled. There is no
// outgoing half or READ_SOURCE/READ_ALL override: InternalController has no
// external protocol to poll or query.
func (c *InternalController) Run(ctx context.Context) error {
	return c.BaseController.Run(ctx, Hooks{})
}

var _ types.Controller = (*InternalController)(nil)
