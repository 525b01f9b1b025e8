// Package feed reads the immutable upstream dump files, one CSV per source.
// Malformed rows are excluded and flagged as audit records; they never abort
// a run or silently coerce to defaults.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/mealcart/carecost-cli/internal/model"
)

// timeLayouts are the accepted timestamp formats, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// row is one parsed CSV line with header-indexed access.
type row struct {
	cols map[string]int
	vals []string
	line int
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.vals) {
		return ""
	}
	return strings.TrimSpace(r.vals[i])
}

// recordID returns the row's surrogate id, falling back to the line number
// when the feed has no record_id column.
func (r row) recordID() string {
	if id := r.get("record_id"); id != "" {
		return id
	}
	return fmt.Sprintf("line-%d", r.line)
}

// forEachRow streams a CSV file, calling fn per data row. Ragged rows are
// tolerated (missing trailing columns read as empty).
func forEachRow(path string, fn func(r row)) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "feed: open %s", path)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return eris.Wrapf(err, "feed: read header of %s", path)
	}
	cols := make(map[string]int, len(header))
	for i, c := range header {
		cols[strings.ToLower(strings.TrimSpace(c))] = i
	}

	line := 1
	for {
		vals, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrapf(err, "feed: read %s", path)
		}
		line++
		fn(row{cols: cols, vals: vals, line: line})
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("unparsable timestamp %q", s)
}

// parseMoney parses a 2dp monetary field. Blank means absent and coalesces
// to zero here because every consumer treats the two identically.
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, eris.Errorf("unparsable amount %q", s)
	}
	return d, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "t", "y", "yes":
		return true
	}
	return false
}

func flag(feed string, r row, orderUUID, field, value string, err error) model.AuditRecord {
	return model.AuditRecord{
		ID:        uuid.New().String(),
		Feed:      feed,
		RecordID:  r.recordID(),
		OrderUUID: orderUUID,
		Field:     field,
		Value:     value,
		Reason:    err.Error(),
		FlaggedAt: time.Now().UTC(),
	}
}
