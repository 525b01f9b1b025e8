package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType identifies which care-related source a signal came from.
type SignalType string

const (
	SignalAdjustment        SignalType = "adjustment"
	SignalGuaranteeClaim    SignalType = "guarantee_claim"
	SignalConcession        SignalType = "concession"
	SignalSelfServiceCancel SignalType = "self_service_cancel"
	SignalFormalCancel      SignalType = "formal_cancel"
	SignalStatusMilestone   SignalType = "status_milestone"
	SignalContact           SignalType = "contact"
	SignalRestaurantRefund  SignalType = "restaurant_refund"
)

// SourceSignal is the normalized record one extractor emits per order.
// There is at most one per (order_uuid, signal_type); extraction resolves
// duplicates before anything downstream sees them.
type SourceSignal struct {
	OrderUUID      string          `json:"order_uuid"`
	Type           SignalType      `json:"signal_type"`
	RawReason      string          `json:"raw_reason,omitempty"`
	ResolvedReason string          `json:"resolved_reason,omitempty"`
	EventTime      time.Time       `json:"event_time"`
	Amount         decimal.Decimal `json:"amount"`
}

// AdjustmentSignal is the authoritative refund adjustment for an order.
type AdjustmentSignal struct {
	SourceSignal
	// ContactReason is the linked support contact's reason, used when the
	// adjustment's own reason is absent or is a verbose refund itemization.
	ContactReason string `json:"contact_reason,omitempty"`
}

// GuaranteeClaimSignal is the authoritative guarantee claim for an order.
type GuaranteeClaimSignal struct {
	SourceSignal
	ClaimType string `json:"claim_type"`
	Decision  string `json:"decision"`
}

// ConcessionSignal is the authoritative goodwill concession for an order.
type ConcessionSignal struct {
	SourceSignal
	TicketID string `json:"ticket_id,omitempty"`
}

// SelfServiceCancelSignal is a diner-initiated cancellation.
type SelfServiceCancelSignal struct {
	SourceSignal
	ReasonCode string `json:"reason_code"`
}

// FormalCancelSignal is a formal cancellation with its governed reason mapping.
type FormalCancelSignal struct {
	SourceSignal
	ReasonName      string `json:"reason_name"`  // "Not Mapped" when the lookup misses
	ReasonGroup     string `json:"reason_group"` // "Other" when the lookup misses
	TicketID        string `json:"ticket_id,omitempty"`
	StatusCancelled bool   `json:"status_cancelled"`
}

// DeliverySignal carries the order's delivery milestones and flags.
// Unlike the other sources it selects the earliest-created row per order.
type DeliverySignal struct {
	SourceSignal
	OrderCreated    time.Time `json:"order_created"`
	ETA             time.Time `json:"eta"`
	DroppedOffAt    time.Time `json:"dropped_off_at"`
	Late            bool      `json:"late"`
	Bundle          bool      `json:"bundle"`
	FulfillmentType string    `json:"fulfillment_type"`
}

// ContactSignal is the authoritative support contact for an order.
type ContactSignal struct {
	SourceSignal
	TicketID string `json:"ticket_id"`
	// Group is the care-cost reason group from the governed contact-reason
	// lookup ("not grouped" when the lookup misses).
	Group     string `json:"group"`
	Automated bool   `json:"automated"`
	Worked    bool   `json:"worked"`
}

// RestaurantRefundSignal sums restaurant-initiated refunds for an order.
// The amount is reported alongside care costs but never included in the total.
type RestaurantRefundSignal struct {
	SourceSignal
}

// ShopAndPay is the fulfillment type for orders a driver shops and purchases.
const ShopAndPay = "shop_and_pay"
