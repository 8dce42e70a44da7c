package models

import (
	"time"

	"github.com/google/uuid"
)

// OperationStatus is the outcome of one scheduler cycle
type OperationStatus string

const (
	StatusSucceeded OperationStatus = "succeeded"
	StatusFailed    OperationStatus = "failed"
)

// Operation represents the database model for one wrap or unwrap cycle
type Operation struct {
	ID       uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	Sequence int64     `gorm:"column:sequence;not null"`

	// Request
	Kind   string `gorm:"column:kind;not null"`
	Amount string `gorm:"column:amount;type:numeric;not null"`

	// Outcome
	Status         OperationStatus `gorm:"column:status;not null"`
	TxHash         string          `gorm:"column:tx_hash"`
	BlockNumber    uint64          `gorm:"column:block_number"`
	GasUsed        uint64          `gorm:"column:gas_used"`
	Error          string          `gorm:"column:error"`
	WrappedBalance *string         `gorm:"column:wrapped_balance;type:numeric"` // nil when not reported

	// Fee quote the transaction was priced with
	PriorityFeeWei string `gorm:"column:priority_fee_wei;type:numeric"`
	MaxFeeWei      string `gorm:"column:max_fee_wei;type:numeric"`
	FeeTier        string `gorm:"column:fee_tier"`

	StartedAt  time.Time `gorm:"column:started_at;not null"`
	FinishedAt time.Time `gorm:"column:finished_at;not null"`
}

// TableName specifies the table name for the Operation model
func (Operation) TableName() string {
	return "operations"
}

// Duration is how long the cycle's submission took
func (o Operation) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
