package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/dropflow/backend/internal/domain/shared/valueobject"
)

// RecordKind discriminates the fulfillment record union
type RecordKind string

const (
	RecordKindManual RecordKind = "manual_instruction"
	RecordKindBot    RecordKind = "bot_result"
)

// recordSchemaVersion is bumped whenever the serialized shape changes.
// Older payloads remain readable; new fields must be optional.
const recordSchemaVersion = 1

// FulfillmentRecord is the outcome evidence attached to an order: either a
// document telling a human how to complete the supplier purchase, or the
// result of an automated purchase attempt. It is owned by its order and is
// never referenced independently.
type FulfillmentRecord struct {
	Version int                `json:"version"`
	Kind    RecordKind         `json:"kind"`
	Manual  *ManualInstruction `json:"manual,omitempty"`
	Bot     *BotResult         `json:"bot,omitempty"`
}

// ManualInstruction tells an operator exactly how to execute the supplier
// purchase: where to buy, where to ship, and how much to spend.
type ManualInstruction struct {
	PurchaseURL string              `json:"purchase_url"`
	ShipTo      valueobject.Address `json:"ship_to"`
	CostToSpend valueobject.Money   `json:"cost_to_spend"`
	Steps       []string            `json:"steps"`
}

// BotResult captures the outcome of an automated purchase attempt.
type BotResult struct {
	Success         bool   `json:"success"`
	ExternalOrderID string `json:"external_order_id,omitempty"`
	ErrorKind       string `json:"error_kind,omitempty"`
	Error           string `json:"error,omitempty"`
	EvidencePath    string `json:"evidence_path,omitempty"`
}

// NewManualRecord creates a manual-instruction fulfillment record
func NewManualRecord(instruction ManualInstruction) FulfillmentRecord {
	return FulfillmentRecord{
		Version: recordSchemaVersion,
		Kind:    RecordKindManual,
		Manual:  &instruction,
	}
}

// NewBotRecord creates a bot-result fulfillment record
func NewBotRecord(result BotResult) FulfillmentRecord {
	return FulfillmentRecord{
		Version: recordSchemaVersion,
		Kind:    RecordKindBot,
		Bot:     &result,
	}
}

// IsZero returns true if the record carries no payload
func (r FulfillmentRecord) IsZero() bool {
	return r.Kind == ""
}

// Succeeded reports whether the record represents a completed fulfillment.
// A manual instruction never counts as completed on its own.
func (r FulfillmentRecord) Succeeded() bool {
	return r.Kind == RecordKindBot && r.Bot != nil && r.Bot.Success
}

// Value implements driver.Valuer for database storage (JSON column)
func (r FulfillmentRecord) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (r *FulfillmentRecord) Scan(value any) error {
	if value == nil {
		*r = FulfillmentRecord{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into FulfillmentRecord", value)
	}
	if len(b) == 0 {
		*r = FulfillmentRecord{}
		return nil
	}
	return json.Unmarshal(b, r)
}
