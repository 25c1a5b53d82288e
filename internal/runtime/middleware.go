package runtime

import (
	"context"
	"fmt"
)

// SheetFunc processes one sheet and returns its recovered-table count (or
// an error).
type SheetFunc func(ctx context.Context) (int, error)

// Guard wraps a SheetFunc with the Controller's concurrency and timeout
// guardrails: it acquires a sheet-processing slot (bounded by
// AcquireTimeout), applies OperationTimeout to the call, and releases the
// slot on return. Adapted from the teacher's Middleware.ToolMiddleware,
// generalized from an mcp-go tool-handler wrapper to a plain function
// wrapper around sheet processing.
func (c *Controller) Guard(next SheetFunc) SheetFunc {
	return func(ctx context.Context) (int, error) {
		if err := c.AcquireSheet(ctx); err != nil {
			return 0, fmt.Errorf("runtime: acquire sheet slot (max=%d): %w", c.limits.MaxConcurrentSheets, err)
		}
		defer c.ReleaseSheet()

		callCtx, cancel := c.WithOperationTimeout(ctx)
		defer cancel()

		count, err := next(callCtx)
		if err == nil && callCtx.Err() == context.DeadlineExceeded {
			return count, fmt.Errorf("runtime: sheet processing exceeded operation timeout")
		}
		return count, err
	}
}
