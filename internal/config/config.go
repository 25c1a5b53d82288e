// Package config holds the tunable knobs of the table-recovery pipeline
// and their defaults, mirroring the guardrail style of the teacher's
// config/defaults.go and internal/runtime.Limits.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Default values for every option in the recognized-options table.
const (
	DefaultMinBlockHeight         = 2
	DefaultMinBlockWidth          = 2
	DefaultHoleToleranceRows      = 1
	DefaultHoleToleranceCols      = 1
	DefaultDensityThreshold       = 0.5
	DefaultRectangularityThreshold = 0.6
	DefaultMergeGainThreshold     = 0.5
	DefaultMaxHeaderRows          = 3
	DefaultHeaderStyleWeight      = 0.3
	DefaultDuplicateColSuffix     = "_{n}"
	DefaultKeepLeafOnly           = false
	DefaultIncludeHidden          = false
	DefaultAllowMidHeaders        = true
	DefaultLongPathSupport        = true
	DefaultConfigProfile          = "default"
)

// DefaultMDLWeights are the MDL cost weights (α, β, γ).
var DefaultMDLWeights = MDLWeights{Alpha: 0.4, Beta: 0.3, Gamma: 0.3}

// DefaultUnitLinePatterns are the regexes checked against the first 10
// rows / 5 columns of each cleaned block to capture a unit annotation.
var DefaultUnitLinePatterns = []string{
	`^\s*单位[:：]\s*.*$`,
	`^\s*\(单位.*\)\s*$`,
}

// Concurrency and resource guardrails, adapted from the teacher's
// config/defaults.go concurrency/payload constants.
const (
	DefaultMaxConcurrentSheets = 8
	DefaultMaxCellsPerSheet    = 2_000_000
	DefaultOperationTimeout    = 30 * time.Second
	DefaultAcquireTimeout      = 2 * time.Second
)

// MDLWeights holds the α (density), β (rectangularity), γ (block-count)
// weights used by the block splitter's keep-vs-split cost comparison.
type MDLWeights struct {
	Alpha float64 `validate:"gte=0"`
	Beta  float64 `validate:"gte=0"`
	Gamma float64 `validate:"gte=0"`
}

// Options captures every recognized configuration option from spec.md §6.
// Zero-valued fields are backfilled by Normalize, with the exceptions
// listed there.
type Options struct {
	MinBlockHeight    int `validate:"gte=0"`
	MinBlockWidth     int `validate:"gte=0"`
	HoleToleranceRows int `validate:"gte=0"`
	HoleToleranceCols int `validate:"gte=0"`

	DensityThreshold       float64 `validate:"gte=0,lte=1"`
	RectangularityThreshold float64 `validate:"gte=0,lte=1"`
	MDLWeights             MDLWeights

	MergeGainThreshold float64 `validate:"gte=-1,lte=1"`

	MaxHeaderRows      int     `validate:"gte=0"`
	HeaderStyleWeight  float64 `validate:"gte=0"`
	KeepLeafOnly       bool
	DuplicateColSuffix string `validate:"required"`

	IncludeHidden    bool
	AllowMidHeaders  bool
	UnitLinePatterns []string

	SanitizeFileName bool
	LongPathSupport  bool
	ConfigProfile    string

	Limits Limits
}

// Limits holds concurrency and resource caps, adapted from the teacher's
// internal/runtime.Limits.
type Limits struct {
	MaxConcurrentSheets int           `validate:"gte=1"`
	MaxCellsPerSheet    int           `validate:"gte=1"`
	OperationTimeout    time.Duration `validate:"gte=0"`
	AcquireTimeout      time.Duration `validate:"gte=0"`
}

// Default returns an Options populated entirely with package defaults.
func Default() Options {
	o := Options{
		HoleToleranceRows: DefaultHoleToleranceRows,
		HoleToleranceCols: DefaultHoleToleranceCols,
		AllowMidHeaders:   DefaultAllowMidHeaders,
		SanitizeFileName:  true,
		LongPathSupport:   DefaultLongPathSupport,
	}
	o.Normalize()
	return o
}

// Normalize backfills zero-valued fields with package defaults, the same
// pattern as the teacher's runtime.NewLimits. The hole tolerances are the
// exception: zero is a valid tolerance, so they are backfilled only when
// negative. Boolean fields are left as given.
func (o *Options) Normalize() {
	if o.MinBlockHeight <= 0 {
		o.MinBlockHeight = DefaultMinBlockHeight
	}
	if o.MinBlockWidth <= 0 {
		o.MinBlockWidth = DefaultMinBlockWidth
	}
	if o.HoleToleranceRows < 0 {
		o.HoleToleranceRows = DefaultHoleToleranceRows
	}
	if o.HoleToleranceCols < 0 {
		o.HoleToleranceCols = DefaultHoleToleranceCols
	}
	if o.DensityThreshold <= 0 {
		o.DensityThreshold = DefaultDensityThreshold
	}
	if o.RectangularityThreshold <= 0 {
		o.RectangularityThreshold = DefaultRectangularityThreshold
	}
	if o.MDLWeights == (MDLWeights{}) {
		o.MDLWeights = DefaultMDLWeights
	}
	if o.MergeGainThreshold == 0 {
		o.MergeGainThreshold = DefaultMergeGainThreshold
	}
	if o.MaxHeaderRows <= 0 {
		o.MaxHeaderRows = DefaultMaxHeaderRows
	}
	if o.HeaderStyleWeight <= 0 {
		o.HeaderStyleWeight = DefaultHeaderStyleWeight
	}
	if o.DuplicateColSuffix == "" {
		o.DuplicateColSuffix = DefaultDuplicateColSuffix
	}
	if o.UnitLinePatterns == nil {
		o.UnitLinePatterns = append([]string(nil), DefaultUnitLinePatterns...)
	}
	if o.ConfigProfile == "" {
		o.ConfigProfile = DefaultConfigProfile
	}
	if o.Limits.MaxConcurrentSheets <= 0 {
		o.Limits.MaxConcurrentSheets = DefaultMaxConcurrentSheets
	}
	if o.Limits.MaxCellsPerSheet <= 0 {
		o.Limits.MaxCellsPerSheet = DefaultMaxCellsPerSheet
	}
	if o.Limits.OperationTimeout <= 0 {
		o.Limits.OperationTimeout = DefaultOperationTimeout
	}
	if o.Limits.AcquireTimeout <= 0 {
		o.Limits.AcquireTimeout = DefaultAcquireTimeout
	}
}

var validate = validator.New()

// Validate normalizes and then checks the option set against its struct
// tags, returning the validator's error, which lists every failing field.
func (o *Options) Validate() error {
	o.Normalize()
	return validate.Struct(o)
}
