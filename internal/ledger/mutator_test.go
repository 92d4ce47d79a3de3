package ledger

import (
	"context"
	"sync"
	"testing"

	"finance_portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositWritesBalancePaymentAndTransaction(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, 1)

	outcome := f.mutator.Deposit(context.Background(), acc.ID, dec("100.00"))

	require.Equal(t, OutcomeSuccess, outcome)
	assert.True(t, f.balance(t, acc.ID).Equal(dec("100")))

	var tx domain.Transaction
	require.NoError(t, f.db.First(&tx, "account_id = ?", acc.ID).Error)
	assert.True(t, tx.Amount.Equal(dec("100")))
	assert.False(t, tx.Time.IsZero())
	assert.Equal(t, uint(0), tx.ProductID)

	var payment domain.Payment
	require.NoError(t, f.db.First(&payment, "payment_id = ?", tx.PaymentID).Error)
	assert.Equal(t, domain.PaymentDeposit, payment.Type)
}

func TestDepositThenNegativeDepositRestoresBalance(t *testing.T) {
	// Deposits are applied as given, negative amounts included
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, 1)
	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(ctx, acc.ID, dec("40.25")))
	before := f.balance(t, acc.ID)

	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(ctx, acc.ID, dec("100.00")))
	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(ctx, acc.ID, dec("-100.00")))

	assert.True(t, f.balance(t, acc.ID).Equal(before))
	assert.Equal(t, int64(3), f.count(t, &domain.Transaction{}))
}

func TestDepositZeroIsRecorded(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, 1)

	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(context.Background(), acc.ID, dec("0")))

	assert.True(t, f.balance(t, acc.ID).IsZero())
	assert.Equal(t, int64(1), f.count(t, &domain.Transaction{}))
}

func TestDepositUnknownAccountRollsBack(t *testing.T) {
	f := newFixture(t)

	outcome := f.mutator.Deposit(context.Background(), 999, dec("10"))

	assert.Equal(t, OutcomeFailure, outcome)
	assert.Equal(t, int64(0), f.count(t, &domain.Payment{}))
	assert.Equal(t, int64(0), f.count(t, &domain.Transaction{}))
}

func TestDepositFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, 1)
	require.NoError(t, f.db.Migrator().DropTable(&domain.Transaction{}))

	outcome := f.mutator.Deposit(context.Background(), acc.ID, dec("10"))

	assert.Equal(t, OutcomeFailure, outcome)
	assert.True(t, f.balance(t, acc.ID).IsZero(), "balance update rolled back")
	assert.Equal(t, int64(0), f.count(t, &domain.Payment{}), "payment insert rolled back")
}

func TestWithdrawMoreThanBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, 1)
	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(ctx, acc.ID, dec("50.50")))
	balance := f.balance(t, acc.ID)

	outcome := f.mutator.Withdraw(ctx, acc.ID, balance.Add(dec("0.01")))

	assert.Equal(t, OutcomeInsufficientFunds, outcome)
	assert.True(t, f.balance(t, acc.ID).Equal(balance))
	assert.Equal(t, int64(1), f.count(t, &domain.Transaction{}))
	assert.Equal(t, int64(1), f.count(t, &domain.Payment{}))
}

func TestWithdrawFullBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, 1)
	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(ctx, acc.ID, dec("75.75")))

	outcome := f.mutator.Withdraw(ctx, acc.ID, f.balance(t, acc.ID))

	require.Equal(t, OutcomeSuccess, outcome)
	assert.True(t, f.balance(t, acc.ID).Equal(dec("0.00")))

	var tx domain.Transaction
	require.NoError(t, f.db.Order("transaction_id DESC").First(&tx).Error)
	assert.True(t, tx.Amount.Equal(dec("-75.75")), "withdrawals are logged negative")
	var payment domain.Payment
	require.NoError(t, f.db.First(&payment, "payment_id = ?", tx.PaymentID).Error)
	assert.Equal(t, domain.PaymentWithdrawal, payment.Type)
}

func TestWithdrawUnknownAccount(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, OutcomeFailure, f.mutator.Withdraw(context.Background(), 999, dec("1")))
	assert.Equal(t, int64(0), f.count(t, &domain.Payment{}))
}

func TestDebitRefusesWhenBalanceNoLongerCovers(t *testing.T) {
	// Behaviour change from a plain check-then-act: the atomic unit re-checks
	// the balance, so a stale pre-read cannot overdraw the account
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, 1)
	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(ctx, acc.ID, dec("10")))

	err := f.mutator.debit(ctx, acc.ID, dec("10.50"))

	assert.ErrorIs(t, err, errInsufficientFunds)
	assert.True(t, f.balance(t, acc.ID).Equal(dec("10")))
	assert.Equal(t, int64(1), f.count(t, &domain.Payment{}))
}

// The test database has a single connection, so these withdrawals queue up
// rather than interleave. It checks that every racer sees a consistent outcome;
// the stale-read case is TestDebitRefusesWhenBalanceNoLongerCovers.
func TestQueuedFullBalanceWithdrawalsSucceedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, 1)
	require.Equal(t, OutcomeSuccess, f.mutator.Deposit(ctx, acc.ID, dec("100")))

	const n = 6
	outcomes := make([]Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = f.mutator.Withdraw(ctx, acc.ID, dec("100"))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, o := range outcomes {
		if o == OutcomeSuccess {
			successes++
		} else {
			assert.Equal(t, OutcomeInsufficientFunds, o)
		}
	}
	assert.Equal(t, 1, successes)
	assert.True(t, f.balance(t, acc.ID).IsZero())
	assert.True(t, f.balance(t, acc.ID).Equal(f.ledgerSum(t, acc.ID)))
}

func TestBalanceEqualsLedgerSum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.account(t, 1)

	steps := []struct {
		deposit bool
		amount  string
	}{
		{true, "200.00"},
		{false, "50.25"},
		{true, "12.50"},
		{false, "500.00"}, // rejected
		{false, "162.25"},
		{true, "0.75"},
		{false, "0.50"},
	}
	for _, s := range steps {
		if s.deposit {
			f.mutator.Deposit(ctx, acc.ID, dec(s.amount))
		} else {
			f.mutator.Withdraw(ctx, acc.ID, dec(s.amount))
		}
		assert.True(t, f.balance(t, acc.ID).Equal(f.ledgerSum(t, acc.ID)), "after %v %s", s.deposit, s.amount)
	}

	assert.True(t, f.balance(t, acc.ID).Equal(dec("0.25")))
	assert.Equal(t, f.count(t, &domain.Payment{}), f.count(t, &domain.Transaction{}))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "insufficient_funds", OutcomeInsufficientFunds.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
}
