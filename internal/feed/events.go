package feed

import (
	"github.com/mealcart/carecost-cli/internal/model"
)

// ReadAdjustments loads the adjustment feed, window-scoped with the one-day
// tolerance.
func ReadAdjustments(path string, w model.Window) ([]model.AdjustmentEvent, []model.AuditRecord, error) {
	var events []model.AdjustmentEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		ts, err := parseTime(r.get("timestamp"))
		if err != nil {
			audit = append(audit, flag("adjustments", r, r.get("order_id"), "timestamp", r.get("timestamp"), err))
			return
		}
		if !w.ContainsLoose(ts) {
			return
		}
		amount, err := parseMoney(r.get("amount"))
		if err != nil {
			audit = append(audit, flag("adjustments", r, r.get("order_id"), "amount", r.get("amount"), err))
			return
		}
		events = append(events, model.AdjustmentEvent{
			RecordID:  r.recordID(),
			OrderUUID: r.get("order_id"),
			Reason:    r.get("reason"),
			Timestamp: ts,
			Direction: r.get("direction"),
			Payer:     r.get("payer"),
			TicketID:  r.get("linked_ticket_id"),
			Amount:    amount,
		})
	})
	return events, audit, err
}

// ReadGuaranteeClaims loads the guarantee-claim feed.
func ReadGuaranteeClaims(path string, w model.Window) ([]model.GuaranteeClaimEvent, []model.AuditRecord, error) {
	var events []model.GuaranteeClaimEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		ts, err := parseTime(r.get("timestamp"))
		if err != nil {
			audit = append(audit, flag("guarantee_claims", r, r.get("order_id"), "timestamp", r.get("timestamp"), err))
			return
		}
		if !w.ContainsLoose(ts) {
			return
		}
		events = append(events, model.GuaranteeClaimEvent{
			RecordID:  r.recordID(),
			OrderUUID: r.get("order_id"),
			ClaimType: r.get("claim_type"),
			Decision:  r.get("decision"),
			Timestamp: ts,
		})
	})
	return events, audit, err
}

// ReadConcessions loads the concession feed.
func ReadConcessions(path string, w model.Window) ([]model.ConcessionEvent, []model.AuditRecord, error) {
	var events []model.ConcessionEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		ts, err := parseTime(r.get("timestamp"))
		if err != nil {
			audit = append(audit, flag("concessions", r, r.get("order_id"), "timestamp", r.get("timestamp"), err))
			return
		}
		if !w.ContainsLoose(ts) {
			return
		}
		events = append(events, model.ConcessionEvent{
			RecordID:  r.recordID(),
			OrderUUID: r.get("order_id"),
			TicketID:  r.get("linked_ticket_id"),
			Timestamp: ts,
		})
	})
	return events, audit, err
}

// ReadSelfServiceCancels loads the diner self-service cancellation feed.
func ReadSelfServiceCancels(path string, w model.Window) ([]model.SelfServiceCancelEvent, []model.AuditRecord, error) {
	var events []model.SelfServiceCancelEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		ts, err := parseTime(r.get("timestamp"))
		if err != nil {
			audit = append(audit, flag("self_service_cancels", r, r.get("order_id"), "timestamp", r.get("timestamp"), err))
			return
		}
		if !w.ContainsLoose(ts) {
			return
		}
		events = append(events, model.SelfServiceCancelEvent{
			RecordID:   r.recordID(),
			OrderUUID:  r.get("order_id"),
			ReasonCode: r.get("reason_code"),
			Timestamp:  ts,
		})
	})
	return events, audit, err
}

// ReadFormalCancels loads the formal cancellation feed.
func ReadFormalCancels(path string, w model.Window) ([]model.FormalCancelEvent, []model.AuditRecord, error) {
	var events []model.FormalCancelEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		ts, err := parseTime(r.get("timestamp"))
		if err != nil {
			audit = append(audit, flag("cancels", r, r.get("order_id"), "timestamp", r.get("timestamp"), err))
			return
		}
		if !w.ContainsLoose(ts) {
			return
		}
		events = append(events, model.FormalCancelEvent{
			RecordID:       r.recordID(),
			OrderUUID:      r.get("order_id"),
			CancelReasonID: r.get("cancel_reason_id"),
			TicketID:       r.get("linked_ticket_id"),
			Timestamp:      ts,
			StatusCancel:   parseBool(r.get("status_flag")),
		})
	})
	return events, audit, err
}

// ReadContacts loads the support-contact feed.
func ReadContacts(path string, w model.Window) ([]model.ContactEvent, []model.AuditRecord, error) {
	var events []model.ContactEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		ts, err := parseTime(r.get("timestamp"))
		if err != nil {
			audit = append(audit, flag("contacts", r, r.get("order_id"), "timestamp", r.get("timestamp"), err))
			return
		}
		if !w.ContainsLoose(ts) {
			return
		}
		events = append(events, model.ContactEvent{
			RecordID:          r.recordID(),
			OrderUUID:         r.get("order_id"),
			TicketID:          r.get("ticket_id"),
			Timestamp:         ts,
			PrimaryReasonID:   r.get("primary_reason_id"),
			SecondaryReasonID: r.get("secondary_reason_id"),
			Automated:         parseBool(r.get("is_automated")),
			Worked:            parseBool(r.get("is_worked")),
		})
	})
	return events, audit, err
}

// ReadDeliveryFacts loads the delivery-fact feed. ETA and dropoff may be
// absent (order still in flight); order_created_time is required.
func ReadDeliveryFacts(path string, w model.Window) ([]model.DeliveryFactEvent, []model.AuditRecord, error) {
	var events []model.DeliveryFactEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		created, err := parseTime(r.get("order_created_time"))
		if err != nil {
			audit = append(audit, flag("delivery_facts", r, r.get("order_id"), "order_created_time", r.get("order_created_time"), err))
			return
		}
		if !w.ContainsLoose(created) {
			return
		}

		ev := model.DeliveryFactEvent{
			RecordID:        r.recordID(),
			OrderUUID:       r.get("order_id"),
			OrderCreated:    created,
			Bundle:          parseBool(r.get("bundle_flag")),
			FulfillmentType: r.get("fulfillment_type"),
		}
		if s := r.get("eta"); s != "" {
			t, err := parseTime(s)
			if err != nil {
				audit = append(audit, flag("delivery_facts", r, ev.OrderUUID, "eta", s, err))
				return
			}
			ev.ETA = t
		}
		if s := r.get("dropoff_time"); s != "" {
			t, err := parseTime(s)
			if err != nil {
				audit = append(audit, flag("delivery_facts", r, ev.OrderUUID, "dropoff_time", s, err))
				return
			}
			ev.DroppedOffAt = t
		}
		events = append(events, ev)
	})
	return events, audit, err
}

// ReadRestaurantRefunds loads the restaurant-initiated refund feed.
func ReadRestaurantRefunds(path string, w model.Window) ([]model.RestaurantRefundEvent, []model.AuditRecord, error) {
	var events []model.RestaurantRefundEvent
	var audit []model.AuditRecord

	err := forEachRow(path, func(r row) {
		ts, err := parseTime(r.get("timestamp"))
		if err != nil {
			audit = append(audit, flag("restaurant_refunds", r, r.get("order_id"), "timestamp", r.get("timestamp"), err))
			return
		}
		if !w.ContainsLoose(ts) {
			return
		}
		amount, err := parseMoney(r.get("amount"))
		if err != nil {
			audit = append(audit, flag("restaurant_refunds", r, r.get("order_id"), "amount", r.get("amount"), err))
			return
		}
		events = append(events, model.RestaurantRefundEvent{
			RecordID:  r.recordID(),
			OrderUUID: r.get("order_id"),
			Amount:    amount,
			Timestamp: ts,
		})
	})
	return events, audit, err
}
