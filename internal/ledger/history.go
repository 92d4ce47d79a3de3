package ledger

import (
	"context"
	"errors"
	"time"

	"finance_portal/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultHistoryLimit is used when a caller passes a non-positive limit
const DefaultHistoryLimit = 10

// HistoryEntry is one row of an account's recent activity
type HistoryEntry struct {
	TransactionID uint            `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Time          time.Time       `json:"time"`
	PaymentType   string          `json:"payment_type"`
}

// SpendingSummary holds total withdrawals per trailing window. Larger windows
// contain the smaller ones.
type SpendingSummary struct {
	Week        decimal.Decimal `json:"week"`
	Month       decimal.Decimal `json:"month"`
	ThreeMonths decimal.Decimal `json:"three_months"`
	SixMonths   decimal.Decimal `json:"six_months"`
	Year        decimal.Decimal `json:"year"`
}

// ZeroSummary is a summary with no spending in any window
func ZeroSummary() SpendingSummary {
	return SpendingSummary{Week: decimal.Zero, Month: decimal.Zero, ThreeMonths: decimal.Zero, SixMonths: decimal.Zero, Year: decimal.Zero}
}

// History reads the transaction log. It never writes.
type History struct {
	db       *gorm.DB
	accounts *Accounts
	now      func() time.Time
}

func NewHistory(db *gorm.DB) *History {
	return &History{db: db, accounts: NewAccounts(db), now: time.Now}
}

// RecentTransactions lists the user's newest transactions first. A user without
// an account, or without transactions, gets an empty list.
func (h *History) RecentTransactions(ctx context.Context, userID uint, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit // Fall back to the home page size
	}
	account, err := h.accounts.FindAccount(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return []HistoryEntry{}, nil // No account yet, nothing to list
	}
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	err = h.db.WithContext(ctx).
		Table("transactions AS t").
		Select("t.transaction_id, t.amount, t.time, p.type AS payment_type").
		Joins("JOIN payments AS p ON p.payment_id = t.payment_id").
		Where("t.account_id = ?", account.ID).
		Order("t.time DESC, t.transaction_id DESC"). // Newest first, id breaks ties
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, domain.Persistence("recent transactions", err)
	}
	if entries == nil {
		entries = []HistoryEntry{} // Serialise as [] rather than null
	}
	return entries, nil
}

type spendingRow struct {
	Week        decimal.Decimal `gorm:"column:week_total"`
	Month       decimal.Decimal `gorm:"column:month_total"`
	ThreeMonths decimal.Decimal `gorm:"column:three_months_total"`
	SixMonths   decimal.Decimal `gorm:"column:six_months_total"`
	Year        decimal.Decimal `gorm:"column:year_total"`
}

const spendingQuery = `
SELECT
	COALESCE(SUM(CASE WHEN time >= ? THEN -amount ELSE 0 END), 0) AS week_total,
	COALESCE(SUM(CASE WHEN time >= ? THEN -amount ELSE 0 END), 0) AS month_total,
	COALESCE(SUM(CASE WHEN time >= ? THEN -amount ELSE 0 END), 0) AS three_months_total,
	COALESCE(SUM(CASE WHEN time >= ? THEN -amount ELSE 0 END), 0) AS six_months_total,
	COALESCE(SUM(-amount), 0) AS year_total
FROM transactions
WHERE account_id = ? AND amount < 0 AND time >= ?`

// monthsBefore steps back n calendar months, clamping the day to the end of the
// target month the way MySQL's INTERVAL n MONTH does (31 March -> 28/29 February)
func monthsBefore(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day() // Days in the target month
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// SpendingSummary totals the absolute value of withdrawals over the trailing
// week, month, three months, six months and year. Returns domain.ErrNotFound
// when the user has no account, which is not the same as zero spending.
func (h *History) SpendingSummary(ctx context.Context, userID uint) (SpendingSummary, error) {
	account, err := h.accounts.FindAccount(ctx, userID)
	if err != nil {
		return SpendingSummary{}, err
	}

	now := h.now().UTC() // Stored times are UTC
	var row spendingRow
	err = h.db.WithContext(ctx).Raw(spendingQuery,
		now.AddDate(0, 0, -7), // Week
		monthsBefore(now, 1),  // Month
		monthsBefore(now, 3),  // Three months
		monthsBefore(now, 6),  // Six months
		account.ID,
		monthsBefore(now, 12), // Year, also bounds the scan
	).Scan(&row).Error
	if err != nil {
		return SpendingSummary{}, domain.Persistence("spending summary", err)
	}
	return SpendingSummary(row), nil
}
