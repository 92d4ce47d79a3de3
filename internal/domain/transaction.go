package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment types
const (
	PaymentDeposit    = "deposit"
	PaymentWithdrawal = "withdrawal"
)

// Payment Model. One row per ledger event, written just before its Transaction.
type Payment struct {
	ID   uint   `gorm:"primaryKey;column:payment_id" json:"payment_id"` // Primary key
	Type string `gorm:"type:varchar(10);not null" json:"type"`          // deposit or withdrawal
}

func (Payment) TableName() string {
	return "payments"
}

// Transaction Model. Append-only.
type Transaction struct {
	ID        uint            `gorm:"primaryKey;column:transaction_id" json:"transaction_id"` // Primary key
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`              // Positive for deposits, negative for withdrawals
	AccountID uint            `gorm:"index;not null" json:"account_id"`                       // Owning account
	PaymentID uint            `gorm:"uniqueIndex;not null" json:"payment_id"`                 // Paired payment
	Time      time.Time       `gorm:"autoCreateTime;index" json:"time"`                       // Assigned at insert
	ProductID uint            `gorm:"not null;default:0" json:"-"`                            // Unused legacy column

	Account *Account `gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"` // FK transactions.account_id
	Payment *Payment `gorm:"foreignKey:PaymentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"` // FK transactions.payment_id
}

func (Transaction) TableName() string {
	return "transactions"
}
