package ledger

import (
	"context"
	"errors"

	"finance_portal/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Outcome is the closed set of results of a ledger mutation
type Outcome int

const (
	OutcomeSuccess           Outcome = iota // Committed
	OutcomeInsufficientFunds                // Withdrawal rejected, nothing written
	OutcomeFailure                          // Rolled back, cause logged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInsufficientFunds:
		return "insufficient_funds"
	default:
		return "failure"
	}
}

// amounts are bound as strings; the cast keeps MySQL arithmetic in DECIMAL
const (
	addBalance = "balance + CAST(? AS DECIMAL(12,2))"
	subBalance = "balance - CAST(? AS DECIMAL(12,2))"
	hasBalance = "account_id = ? AND balance >= CAST(? AS DECIMAL(12,2))"
)

var errInsufficientFunds = errors.New("insufficient funds")

// Mutator applies deposits and withdrawals. Each one is a balance update, a
// payment row and a transaction row committed together.
type Mutator struct {
	db *gorm.DB
}

func NewMutator(db *gorm.DB) *Mutator {
	return &Mutator{db: db}
}

// Deposit adds amount to the account. The amount is applied as given: zero and
// negative deposits are not rejected here, validation belongs to the caller.
func (m *Mutator) Deposit(ctx context.Context, accountID uint, amount decimal.Decimal) Outcome {
	amount = amount.Round(2) // Match the column scale
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Account{}).
			Where("account_id = ?", accountID).
			Update("balance", gorm.Expr(addBalance, amount))
		if res.Error != nil {
			return res.Error // Return error to rollback
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound // Unknown account, nothing written
		}
		return appendEntry(tx, accountID, domain.PaymentDeposit, amount) // Commit with the ledger rows
	})
	return m.report(accountID, domain.PaymentDeposit, amount, err)
}

// Withdraw removes amount from the account. The balance is checked first with a
// plain read; the decrement itself is conditional on the balance still covering
// the amount, so a concurrent withdrawal that drained the account in between
// yields OutcomeInsufficientFunds instead of a negative balance.
func (m *Mutator) Withdraw(ctx context.Context, accountID uint, amount decimal.Decimal) Outcome {
	amount = amount.Round(2)

	var account domain.Account
	err := m.db.WithContext(ctx).Where("account_id = ?", accountID).First(&account).Error
	if err != nil {
		return m.report(accountID, domain.PaymentWithdrawal, amount, err)
	}
	if account.Balance.LessThan(amount) {
		return m.report(accountID, domain.PaymentWithdrawal, amount, errInsufficientFunds) // Fast path, nothing written
	}

	return m.report(accountID, domain.PaymentWithdrawal, amount, m.debit(ctx, accountID, amount))
}

// debit is the atomic part of a withdrawal. It returns errInsufficientFunds when
// the balance no longer covers amount.
func (m *Mutator) debit(ctx context.Context, accountID uint, amount decimal.Decimal) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Account{}).
			Where(hasBalance, accountID, amount).
			Update("balance", gorm.Expr(subBalance, amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInsufficientFunds // Drained since the pre-read
		}
		return appendEntry(tx, accountID, domain.PaymentWithdrawal, amount.Neg()) // Withdrawals are logged negative
	})
}

// appendEntry writes the payment marker and its transaction row
func appendEntry(tx *gorm.DB, accountID uint, paymentType string, amount decimal.Decimal) error {
	payment := domain.Payment{Type: paymentType} // Payment first, its id keys the transaction
	if err := tx.Create(&payment).Error; err != nil {
		return err // Return error to rollback
	}
	return tx.Create(&domain.Transaction{
		Amount:    amount,
		AccountID: accountID,
		PaymentID: payment.ID,
	}).Error // Time is stamped by gorm
}

// report logs the mutation and folds err into an Outcome
func (m *Mutator) report(accountID uint, paymentType string, amount decimal.Decimal, err error) Outcome {
	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, errInsufficientFunds):
		outcome = OutcomeInsufficientFunds
	default:
		outcome = OutcomeFailure
	}

	entry := logrus.WithFields(logrus.Fields{
		"account_id": accountID,             // Account ID
		"amount":     amount.StringFixed(2), // Amount as requested
		"type":       paymentType,           // deposit or withdrawal
		"outcome":    outcome.String(),      // Result
	})
	switch outcome {
	case OutcomeSuccess:
		entry.Info("Ledger transaction")
	case OutcomeInsufficientFunds:
		entry.Warn("Ledger transaction rejected")
	default:
		entry.WithError(err).Error("Ledger transaction failed")
	}
	return outcome
}
