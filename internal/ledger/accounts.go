// Package ledger owns account balances and the append-only transaction log.
package ledger

import (
	"context"
	"errors"

	"finance_portal/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Accounts maps users to their single balance-bearing account
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// FindAccount returns the user's account without creating one
func (a *Accounts) FindAccount(ctx context.Context, userID uint) (*domain.Account, error) {
	var account domain.Account
	err := a.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error // One account per user
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound // Callers decide whether to create
	}
	if err != nil {
		return nil, domain.Persistence("find account", err)
	}
	return &account, nil
}

// GetOrCreateAccount returns the user's account, creating it with a zero balance
// on first access. The insert is a no-op when a concurrent caller won the race,
// relying on the unique user_id index, so both callers read the same row.
func (a *Accounts) GetOrCreateAccount(ctx context.Context, userID uint) (*domain.Account, error) {
	account, err := a.FindAccount(ctx, userID)
	if err == nil {
		return account, nil // Already open
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	err = a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}}, // Unique index
			DoNothing: true,                               // Keep the winner's row
		}).
		Create(&domain.Account{UserID: userID}).Error // Balance defaults to 0.00
	if err != nil {
		return nil, domain.Persistence("create account", err)
	}

	return a.FindAccount(ctx, userID) // Re-read whichever row won
}
