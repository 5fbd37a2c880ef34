package runtime

import "context"

// Run drains the invocation queue whenever work arrives, until ctx is
// cancelled. Queued invocations stay queued across cancellation; nothing is
// dropped.
func (r *Runtime) Run(ctx context.Context) error {
	r.Drain()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.kick:
			r.Drain()
		}
	}
}
