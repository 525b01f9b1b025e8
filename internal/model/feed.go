package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raw feed records, one type per upstream dump file. Each carries a RecordID
// surrogate key used as the deterministic tie-break when timestamps collide.

// AdjustmentEvent is one row of the adjustment feed.
type AdjustmentEvent struct {
	RecordID  string
	OrderUUID string
	Reason    string
	Timestamp time.Time
	Direction string // "diner" or "grub"
	Payer     string
	TicketID  string
	Amount    decimal.Decimal
}

// GuaranteeClaimEvent is one row of the guarantee-claim feed.
type GuaranteeClaimEvent struct {
	RecordID  string
	OrderUUID string
	ClaimType string
	Decision  string
	Timestamp time.Time
}

// ConcessionEvent is one row of the concession feed.
type ConcessionEvent struct {
	RecordID  string
	OrderUUID string
	TicketID  string
	Timestamp time.Time
}

// SelfServiceCancelEvent is one row of the diner self-service cancel feed.
type SelfServiceCancelEvent struct {
	RecordID   string
	OrderUUID  string
	ReasonCode string
	Timestamp  time.Time
}

// FormalCancelEvent is one row of the formal cancellation feed.
type FormalCancelEvent struct {
	RecordID       string
	OrderUUID      string
	CancelReasonID string
	TicketID       string
	Timestamp      time.Time
	StatusCancel   bool
}

// ContactEvent is one row of the support-contact feed.
type ContactEvent struct {
	RecordID          string
	OrderUUID         string
	TicketID          string
	Timestamp         time.Time
	PrimaryReasonID   string
	SecondaryReasonID string
	Automated         bool
	Worked            bool
}

// DeliveryFactEvent is one row of the delivery-fact feed. Multiple rows per
// order are permitted; extraction keeps the earliest-created one.
type DeliveryFactEvent struct {
	RecordID        string
	OrderUUID       string
	OrderCreated    time.Time
	ETA             time.Time
	DroppedOffAt    time.Time
	Bundle          bool
	FulfillmentType string
}

// RestaurantRefundEvent is one row of the restaurant-initiated refund feed.
type RestaurantRefundEvent struct {
	RecordID  string
	OrderUUID string
	Amount    decimal.Decimal
	Timestamp time.Time
}

// FinancialFact is one row of the financial fact feed: the base order set.
// Exactly one row per order; duplicates are a contract violation that aborts
// the run. All monetary fields arrive already signed (costs are negative).
type FinancialFact struct {
	OrderUUID       string
	DeliveryDate    time.Time
	RegionID        string
	ManagedDelivery bool
	IsDelivery      bool

	DinerAdjustment       decimal.Decimal
	ConcessionAmount      decimal.Decimal
	RedeliveryCost        decimal.Decimal
	GrubRefund            decimal.Decimal
	DinerTicketCost       decimal.Decimal
	DriverTicketCost      decimal.Decimal
	RestaurantTicketCost  decimal.Decimal
	InternalTicketCost    decimal.Decimal
	RestaurantRefundTotal decimal.Decimal
	AltCurrencyConcession decimal.Decimal
}
