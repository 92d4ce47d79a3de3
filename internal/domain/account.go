package domain

import "github.com/shopspring/decimal"

// Account Model
type Account struct {
	ID      uint            `gorm:"primaryKey;column:account_id" json:"account_id"`       // Primary key
	UserID  uint            `gorm:"uniqueIndex;not null" json:"user_id"`                  // Owning user, one account per user
	Balance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"` // Cached sum of the account's transactions
}

func (Account) TableName() string {
	return "accounts"
}
