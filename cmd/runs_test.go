//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mealcart/carecost-cli/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC)
	runs := []store.RunRecord{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			WindowStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
			Scope:       "ghd",
			CreatedAt:   now,
		},
		{
			ID:          "def12345-6789-0000-0000-000000000000",
			WindowStart: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
			Scope:       "all",
			CreatedAt:   now.Add(-24 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "WINDOW")
	assert.Contains(t, output, "SCOPE")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "2025-06-01..2025-06-30")
	assert.Contains(t, output, "ghd")
	assert.Contains(t, output, "def12345")
	assert.Contains(t, output, "all")
	assert.Contains(t, output, "2025-07-01 10:30")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
