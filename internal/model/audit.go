package model

import "time"

// AuditRecord flags one source record excluded or rejected during a run.
// The full list is emitted alongside the aggregation output so excluded
// data is auditable rather than silently dropped.
type AuditRecord struct {
	ID        string    `json:"id"`
	Feed      string    `json:"feed"`
	RecordID  string    `json:"record_id,omitempty"`
	OrderUUID string    `json:"order_uuid,omitempty"`
	Field     string    `json:"field,omitempty"`
	Value     string    `json:"value,omitempty"`
	Reason    string    `json:"reason"`
	FlaggedAt time.Time `json:"flagged_at"`
}
