package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"finance_portal/internal/db/dbtest"
	"finance_portal/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	accounts *Accounts
	mutator  *Mutator
	history  *History
	stats    *Statistics
}

func newFixture(t *testing.T) *fixture {
	gdb := dbtest.Open(t)
	return &fixture{
		db:       gdb,
		accounts: NewAccounts(gdb),
		mutator:  NewMutator(gdb),
		history:  NewHistory(gdb),
		stats:    NewStatistics(gdb),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ensureUser inserts a user row with the given id unless one exists
func (f *fixture) ensureUser(t *testing.T, userID uint) {
	name := fmt.Sprintf("user%d", userID)
	u := domain.User{ID: userID, FirstName: "First", LastName: "Last", Role: domain.RoleStandard, Email: name + "@example.com", Username: name, Password: "pw"}
	require.NoError(t, f.db.Where("user_id = ?", userID).FirstOrCreate(&u).Error)
}

// account returns the user's account, creating the user and account as needed
func (f *fixture) account(t *testing.T, userID uint) *domain.Account {
	f.ensureUser(t, userID)
	acc, err := f.accounts.GetOrCreateAccount(context.Background(), userID)
	require.NoError(t, err)
	return acc
}

func (f *fixture) balance(t *testing.T, accountID uint) decimal.Decimal {
	var acc domain.Account
	require.NoError(t, f.db.First(&acc, "account_id = ?", accountID).Error)
	return acc.Balance
}

func (f *fixture) ledgerSum(t *testing.T, accountID uint) decimal.Decimal {
	var row struct {
		Total decimal.Decimal
	}
	require.NoError(t, f.db.Raw("SELECT COALESCE(SUM(amount), 0) AS total FROM transactions WHERE account_id = ?", accountID).Scan(&row).Error)
	return row.Total
}

func (f *fixture) count(t *testing.T, model any) int64 {
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

// backdate writes a ledger entry with an explicit timestamp, bypassing the balance
func (f *fixture) backdate(t *testing.T, accountID uint, amount string, at time.Time) {
	paymentType := domain.PaymentDeposit
	if dec(amount).IsNegative() {
		paymentType = domain.PaymentWithdrawal
	}
	payment := domain.Payment{Type: paymentType}
	require.NoError(t, f.db.Create(&payment).Error)
	require.NoError(t, f.db.Create(&domain.Transaction{
		Amount:    dec(amount),
		AccountID: accountID,
		PaymentID: payment.ID,
		Time:      at.UTC(),
	}).Error)
}
