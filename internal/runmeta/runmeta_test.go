package runmeta_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tablerecover/tablerecover/internal/runmeta"
)

func TestNewRunIDFormatsTimestamp(t *testing.T) {
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "RUN_20260731T120000Z_UTC", runmeta.NewRunID(ts))
}

func TestNewRunIDConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2026, 7, 31, 14, 0, 0, 0, loc)
	assert.Equal(t, "RUN_20260731T120000Z_UTC", runmeta.NewRunID(ts))
}

func TestNewHandleIDIsUniqueAndNonEmpty(t *testing.T) {
	a := runmeta.NewHandleID()
	b := runmeta.NewHandleID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
