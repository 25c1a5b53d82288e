// Package runmeta generates the identifiers that scope one pipeline run:
// the run ID used for the output directory name and manifest/log
// events, and disambiguating suffixes for artifact names that collide
// within a run. Grounded on the teacher's internal/workbooks.Manager use
// of github.com/google/uuid for handle IDs, generalized from per-handle
// IDs to a per-run ID.
package runmeta

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const runTimeLayout = "20060102T150405Z"

// NewRunID formats a run identifier as RUN_<timestamp>_UTC, per
// spec.md §6 "Manifest". ts is taken as a parameter (rather than
// time.Now()) so callers control the instant once and reuse it across
// the manifest, the output directory name, and the table file names.
func NewRunID(ts time.Time) string {
	return fmt.Sprintf("RUN_%s_UTC", ts.UTC().Format(runTimeLayout))
}

// NewHandleID returns a process-unique identifier suitable for
// namespacing temporary artifacts that collide, following the teacher's
// uuid.NewString() handle-ID pattern.
func NewHandleID() string {
	return uuid.NewString()
}
