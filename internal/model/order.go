package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reason group literals shared across classification and rollup.
const (
	GroupNoCareCost = "orders with no care cost"
	GroupLogistics  = "Logistics Issues"
	GroupRestaurant = "Restaurant Issues"
	GroupDiner      = "Diner Issues"
	GroupNotGrouped = "not grouped"
	GroupOther      = "Other"      // governed cancel lookup placeholder
	ReasonNotMapped = "Not Mapped" // governed cancel lookup placeholder, treated as absent
	ETAIssues       = "ETA Issues"
	ETAOther        = "Other"
)

// EnrichedOrder is the unit of all downstream processing: exactly one per
// order, the base financial fact joined with every resolved signal.
// Classification fields use "" for "no such signal"; cost fields are always
// defined and coalesced to zero.
type EnrichedOrder struct {
	OrderUUID       string    `json:"order_uuid"`
	DeliveryDate    time.Time `json:"delivery_date"`
	RegionID        string    `json:"region_id"`
	MarketSegment   string    `json:"market_segment"`
	ManagedDelivery bool      `json:"managed_delivery"`
	IsDelivery      bool      `json:"is_delivery"`
	Bundle          bool      `json:"bundle"`
	ShopAndPay      bool      `json:"shop_and_pay"`
	Late            bool      `json:"late"`
	Cancelled       bool      `json:"cancelled"`

	// Cost components. TicketCost is the pre-summed four sub-ticket costs.
	DinerAdjustment       decimal.Decimal `json:"diner_adjustment"`
	ConcessionAmount      decimal.Decimal `json:"concession_amount"`
	RedeliveryCost        decimal.Decimal `json:"redelivery_cost"`
	GrubRefund            decimal.Decimal `json:"grub_refund"`
	TicketCost            decimal.Decimal `json:"ticket_cost"`
	RestaurantRefundTotal decimal.Decimal `json:"restaurant_refund_total"`
	AltCurrencyConcession decimal.Decimal `json:"alt_currency_concession"`
	TotalCareCost         decimal.Decimal `json:"total_care_cost"`

	// Per-signal resolved classification fields.
	AdjustmentReason        string `json:"adjustment_reason,omitempty"`
	AdjustmentContactReason string `json:"adjustment_contact_reason,omitempty"`
	GuaranteeClaimReason    string `json:"guarantee_claim_reason,omitempty"`
	ConcessionReason        string `json:"concession_reason,omitempty"`
	SelfServiceCancelReason string `json:"self_service_cancel_reason,omitempty"`
	CancelReasonName        string `json:"cancel_reason_name,omitempty"`
	CancelGroup             string `json:"cancel_group,omitempty"`
	ContactGroup            string `json:"contact_group,omitempty"`

	// Combiner outputs.
	CombinedReason string `json:"adjustment_and_cancel_reason_combined,omitempty"`
	FreeGrubReason string `json:"free_grub_reason,omitempty"`
	ReasonGroup    string `json:"care_cost_reason_group,omitempty"`
	ETACareReason  string `json:"eta_care_reason,omitempty"`
}

// HasCareCost reports whether any whitelisted cost component is non-zero.
func (o *EnrichedOrder) HasCareCost() bool {
	return !o.TotalCareCost.IsZero()
}
