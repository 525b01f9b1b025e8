// Package signal turns raw event feeds into at most one SourceSignal per
// order and source. Selection is "latest event_time wins"; ties fall back to
// the highest record id so output is deterministic regardless of feed order.
package signal

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealcart/carecost-cli/internal/model"
)

// selector picks one record per order key from a raw batch.
type selector[T any] struct {
	feed string
	key  func(T) string
	ts   func(T) time.Time
	id   func(T) string
	// earliest flips the comparison: minimum timestamp wins instead of
	// maximum (used by the delivery-fact source).
	earliest bool
}

// run groups records by order key and keeps the winning record per group.
// Records with a zero timestamp or empty order key are rejected into the
// audit list rather than silently participating in the tie-break.
func (s selector[T]) run(records []T) (map[string]T, []model.AuditRecord) {
	out := make(map[string]T, len(records))
	var audit []model.AuditRecord

	for _, rec := range records {
		k := s.key(rec)
		t := s.ts(rec)
		switch {
		case k == "":
			audit = append(audit, reject(s.feed, s.id(rec), "", "order_key", "", "missing order key"))
			continue
		case t.IsZero():
			audit = append(audit, reject(s.feed, s.id(rec), k, "timestamp", "", "zero timestamp, no defined tie-break"))
			continue
		}

		cur, ok := out[k]
		if !ok || s.wins(rec, cur) {
			out[k] = rec
		}
	}

	return out, audit
}

func (s selector[T]) wins(candidate, current T) bool {
	ct, wt := s.ts(candidate), s.ts(current)
	if !ct.Equal(wt) {
		if s.earliest {
			return ct.Before(wt)
		}
		return ct.After(wt)
	}
	// Identical timestamps: highest record id wins. Deterministic, but the
	// choice of direction is arbitrary.
	return s.id(candidate) > s.id(current)
}

func reject(feed, recordID, orderUUID, field, value, reason string) model.AuditRecord {
	return model.AuditRecord{
		ID:        uuid.New().String(),
		Feed:      feed,
		RecordID:  recordID,
		OrderUUID: orderUUID,
		Field:     field,
		Value:     value,
		Reason:    reason,
		FlaggedAt: time.Now().UTC(),
	}
}
