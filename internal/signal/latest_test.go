package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealcart/carecost-cli/internal/model"
)

func adjSelector() selector[model.AdjustmentEvent] {
	return selector[model.AdjustmentEvent]{
		feed: "adjustments",
		key:  func(e model.AdjustmentEvent) string { return e.OrderUUID },
		ts:   func(e model.AdjustmentEvent) time.Time { return e.Timestamp },
		id:   func(e model.AdjustmentEvent) string { return e.RecordID },
	}
}

func TestSelector_LatestWins(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	winners, audit := adjSelector().run([]model.AdjustmentEvent{
		{RecordID: "a", OrderUUID: "o-1", Reason: "first", Timestamp: t1},
		{RecordID: "b", OrderUUID: "o-1", Reason: "second", Timestamp: t2},
	})

	require.Empty(t, audit)
	require.Len(t, winners, 1)
	assert.Equal(t, "second", winners["o-1"].Reason)
}

func TestSelector_LatestWins_OrderIndependent(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	winners, _ := adjSelector().run([]model.AdjustmentEvent{
		{RecordID: "b", OrderUUID: "o-1", Reason: "second", Timestamp: t2},
		{RecordID: "a", OrderUUID: "o-1", Reason: "first", Timestamp: t1},
	})
	assert.Equal(t, "second", winners["o-1"].Reason)
}

func TestSelector_TieBreaksOnRecordID(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	events := []model.AdjustmentEvent{
		{RecordID: "rec-1", OrderUUID: "o-1", Reason: "lower", Timestamp: ts},
		{RecordID: "rec-9", OrderUUID: "o-1", Reason: "higher", Timestamp: ts},
	}

	winners, _ := adjSelector().run(events)
	assert.Equal(t, "higher", winners["o-1"].Reason)

	// Reversed input must pick the same winner.
	winners, _ = adjSelector().run([]model.AdjustmentEvent{events[1], events[0]})
	assert.Equal(t, "higher", winners["o-1"].Reason)
}

func TestSelector_RejectsZeroTimestamp(t *testing.T) {
	winners, audit := adjSelector().run([]model.AdjustmentEvent{
		{RecordID: "a", OrderUUID: "o-1"},
	})

	assert.Empty(t, winners)
	require.Len(t, audit, 1)
	assert.Equal(t, "adjustments", audit[0].Feed)
	assert.Equal(t, "timestamp", audit[0].Field)
	assert.Equal(t, "o-1", audit[0].OrderUUID)
}

func TestSelector_RejectsEmptyOrderKey(t *testing.T) {
	winners, audit := adjSelector().run([]model.AdjustmentEvent{
		{RecordID: "a", Timestamp: time.Now()},
	})

	assert.Empty(t, winners)
	require.Len(t, audit, 1)
	assert.Equal(t, "order_key", audit[0].Field)
}

func TestSelector_EarliestMode(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	sel := selector[model.DeliveryFactEvent]{
		feed:     "delivery_facts",
		key:      func(e model.DeliveryFactEvent) string { return e.OrderUUID },
		ts:       func(e model.DeliveryFactEvent) time.Time { return e.OrderCreated },
		id:       func(e model.DeliveryFactEvent) string { return e.RecordID },
		earliest: true,
	}

	winners, _ := sel.run([]model.DeliveryFactEvent{
		{RecordID: "a", OrderUUID: "o-1", OrderCreated: t2},
		{RecordID: "b", OrderUUID: "o-1", OrderCreated: t1},
	})
	assert.Equal(t, "b", winners["o-1"].RecordID)
}
