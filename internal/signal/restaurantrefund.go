package signal

import (
	"github.com/shopspring/decimal"

	"github.com/mealcart/carecost-cli/internal/model"
)

// ExtractRestaurantRefunds sums restaurant-initiated refunds per order.
// Unlike the other sources every qualifying event contributes to the amount;
// the signal's event time is the latest contributing refund.
func ExtractRestaurantRefunds(events []model.RestaurantRefundEvent) (map[string]model.RestaurantRefundSignal, []model.AuditRecord) {
	out := make(map[string]model.RestaurantRefundSignal)
	var audit []model.AuditRecord

	for _, ev := range events {
		switch {
		case ev.OrderUUID == "":
			audit = append(audit, reject("restaurant_refunds", ev.RecordID, "", "order_key", "", "missing order key"))
			continue
		case ev.Timestamp.IsZero():
			audit = append(audit, reject("restaurant_refunds", ev.RecordID, ev.OrderUUID, "timestamp", "", "zero timestamp, no defined tie-break"))
			continue
		}

		sig, ok := out[ev.OrderUUID]
		if !ok {
			sig = model.RestaurantRefundSignal{
				SourceSignal: model.SourceSignal{
					OrderUUID: ev.OrderUUID,
					Type:      model.SignalRestaurantRefund,
					Amount:    decimal.Zero,
				},
			}
		}
		sig.Amount = sig.Amount.Add(ev.Amount)
		if ev.Timestamp.After(sig.EventTime) {
			sig.EventTime = ev.Timestamp
		}
		out[ev.OrderUUID] = sig
	}

	return out, audit
}
