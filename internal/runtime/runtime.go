// Package runtime coordinates the pipeline's concurrency guardrails:
// bounding how many sheets are processed in parallel and how many cells
// a single sheet may occupy before it is rejected, per spec.md §6
// "Limits". Grounded on the teacher's internal/runtime.Limits/Controller
// (weighted-semaphore request/workbook guardrails), generalized from
// request/workbook slots to sheet-processing slots.
package runtime

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/tablerecover/tablerecover/internal/config"
)

// Controller coordinates the weighted semaphore bounding concurrent sheet
// processing for one run.
type Controller struct {
	limits         config.Limits
	sheetSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by a weighted semaphore
// sized to limits.MaxConcurrentSheets.
func NewController(limits config.Limits) *Controller {
	return &Controller{
		limits:         limits,
		sheetSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentSheets)),
	}
}

// AcquireSheet reserves a processing slot for one sheet, applying the
// configured AcquireTimeout when set.
func (c *Controller) AcquireSheet(ctx context.Context) error {
	acquireCtx := ctx
	if c.limits.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, c.limits.AcquireTimeout)
		defer cancel()
	}
	return c.sheetSemaphore.Acquire(acquireCtx, 1)
}

// ReleaseSheet frees a previously-acquired sheet processing slot.
func (c *Controller) ReleaseSheet() {
	c.sheetSemaphore.Release(1)
}

// WithOperationTimeout wraps ctx with the configured OperationTimeout,
// when set, returning a no-op cancel otherwise.
func (c *Controller) WithOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.limits.OperationTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.limits.OperationTimeout)
}

// CheckCellBudget reports whether a sheet with the given cell count fits
// within the configured MaxCellsPerSheet budget.
func (c *Controller) CheckCellBudget(cells int) bool {
	return cells <= c.limits.MaxCellsPerSheet
}

// LimitsSnapshot exposes the configured guardrails for telemetry.
func (c *Controller) LimitsSnapshot() config.Limits {
	return c.limits
}
